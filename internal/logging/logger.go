// Package logging builds the zap logger shared by the server.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a human readable development logger, or a JSON production
// logger when production is set
func New(production bool) (l *zap.Logger, err error) {
	if production {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return l, nil
}
