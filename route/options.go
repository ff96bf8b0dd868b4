package route

import (
	"errors"
	"log/slog"

	"github.com/adamwoolhether/dispatch/mode"
)

// Option is a functional option for configuring a [Router] via [New].
type Option func(*options) error
type options struct {
	logger   *slog.Logger
	recorder Recorder
	handlers map[mode.Mode]Handler
}

// WithLogger injects a custom [slog.Logger] into the [Router].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithRecorder counts succeeded and failed requests per mode.
func WithRecorder(rec Recorder) Option {
	return func(o *options) error {
		if rec == nil {
			return errors.New("recorder must not be nil")
		}
		o.recorder = rec
		return nil
	}
}

// WithHandler registers h for m, replacing the built-in handler.
func WithHandler(m mode.Mode, h Handler) Option {
	return func(o *options) error {
		if !m.Valid() {
			return errors.New("invalid mode")
		}
		if h == nil {
			return errors.New("handler must not be nil")
		}
		if o.handlers == nil {
			o.handlers = make(map[mode.Mode]Handler)
		}
		o.handlers[m] = h
		return nil
	}
}
