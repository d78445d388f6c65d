// Package logger constructs the structured loggers threaded through every
// component's Config struct across the module. It fills in the constructor
// that internal/engine, internal/storage and internal/index all assume
// exists (they take a *zap.SugaredLogger and call it, but none of them
// build one themselves).
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how New builds the underlying zap logger.
type Options struct {
	// Development switches to zap's human-readable console encoder and
	// enables debug-level output. Production services should leave this false.
	Development bool

	// Level overrides the minimum enabled log level. The zero value
	// (InfoLevel) keeps the config's own default: Info in production,
	// Debug in development.
	Level zapcore.Level
}

// New builds a *zap.SugaredLogger tagged with the given service name.
// Callers that need non-default behavior should use NewWithOptions.
func New(service string) *zap.SugaredLogger {
	return NewWithOptions(service, Options{})
}

// NewWithOptions builds a *zap.SugaredLogger tagged with the given service
// name, honoring Development and Level overrides.
func NewWithOptions(service string, opts Options) *zap.SugaredLogger {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if opts.Level != 0 {
		cfg.Level = zap.NewAtomicLevelAt(opts.Level)
	}

	base, err := cfg.Build()
	if err != nil {
		// Configuration is fully static at this point; Build() only fails on
		// invalid encoder/output configuration, which cannot happen here.
		panic(err)
	}

	return base.Named(service).Sugar()
}
