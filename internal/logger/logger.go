// Package logger builds the service's zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// NewNamed creates a named zap logger: JSON production config outside
// development, console development config otherwise.
func NewNamed(appEnv, name string) (*zap.Logger, error) {
	var log *zap.Logger
	var err error
	if appEnv == "development" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return log.Named(name), nil
}
