package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/vaccert/vaccination-server/internal/api/middleware"
	"github.com/vaccert/vaccination-server/internal/services"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP responses. Anything
// unexpected is logged and reported as a bare 500.
func respondError(c *gin.Context, l *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
	default:
		l.Error(op+" failed", zap.Error(err), zap.String("request_id", c.GetString(middleware.RequestIDKey)))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}

// respondBindError reports which fields of target failed validation, by
// their JSON names
func respondBindError(c *gin.Context, target interface{}, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request format"})
		return
	}

	t := reflect.TypeOf(target)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, jsonName(t, fe.StructField()))
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Validation failed",
		"fields":  fields,
	})
}

func jsonName(t reflect.Type, field string) string {
	if sf, ok := t.FieldByName(field); ok {
		if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
			return name
		}
	}
	return field
}
