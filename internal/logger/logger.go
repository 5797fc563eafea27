// Package logger builds the process-wide zap logger.
package logger

import "go.uber.org/zap"

// New returns a development logger for "dev" and a production JSON
// logger for anything else.
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
