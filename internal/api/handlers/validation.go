package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// notblank rejects whitespace-only values that "required" lets through
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("handlers: gin binding engine is not a validator.Validate")
	}
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
}
