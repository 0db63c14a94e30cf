// Package observ builds the process-wide structured logger. Every
// handler, repository, and service receives the *zap.Logger constructed
// here; nothing else in the repo configures logging.
package observ

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a logger tuned by deployment environment: JSON
// output with sampling in production, human-readable console output
// everywhere else. An unrecognized level falls back to info rather than
// failing startup.
func NewLogger(env, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	return cfg.Build()
}
