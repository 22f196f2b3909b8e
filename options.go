package daolite

import (
	"log/slog"
)

// Option configures a Registry during Open.
type Option func(*Registry)

// WithLogger sets the logger used by the registry and its accessors.
// When unset, logging is a no-op.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// WithDebug wraps the engine driver so that every executed statement is
// logged at debug level through the registry logger.
func WithDebug() Option {
	return func(r *Registry) {
		r.debug = true
	}
}
