package pool

import (
	"errors"
	"log/slog"

	"github.com/adamwoolhether/dispatch/mode"
)

// Option is a functional option for configuring a [Pool] via [New].
type Option func(*options) error
type options struct {
	logger   *slog.Logger
	families []mode.Family
}

// WithLogger injects a custom [slog.Logger] into the [Pool].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithFamilies replaces the registered families.
func WithFamilies(families ...mode.Family) Option {
	return func(o *options) error {
		for _, f := range families {
			if f == mode.FamilyNone {
				return errors.New("cannot register the none family")
			}
		}
		o.families = families
		return nil
	}
}
