package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide logr.Logger.
type Options struct {
	// Development selects a human-readable console encoder instead of JSON.
	Development bool
	// Level is the logr verbosity; the minimum enabled zap level is -Level,
	// so positive values increase verbosity (1 == Debug), matching logr's
	// V(n) convention.
	Level int
}

// NewLogger builds a logr.Logger backed by zap, the logging stack used
// throughout the pipeline and the admin server.
func NewLogger(opts Options) logr.Logger {
	zapLevel := zapcore.Level(-opts.Level)

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	zapLog, err := cfg.Build()
	if err != nil {
		// Building the configured logger should never fail in practice;
		// fall back to a no-op logger rather than panicking at startup.
		return logr.Discard()
	}
	return zapr.NewLogger(zapLog)
}
