package worker

import (
	"github.com/okian/gigmatch/pkg/logger"
)

// Option applies a configuration option to the Reloader.
type Option func(*Reloader)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Reloader) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *Reloader) {
		if logger != nil {
			w.logger = logger
		}
	}
}
