// Package logging constructs the zap loggers used across quorum.
package logging

import (
	"go.uber.org/zap"
)

// New returns a logger appropriate for the given verbosity. Debug mode uses
// the development config (human-readable, stack traces on warn).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Nop returns a no-op logger for tests and optional dependencies.
func Nop() *zap.Logger {
	return zap.NewNop()
}
