package dispatch

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/dispatch/route"
)

// Option is a functional option for configuring a [Dispatcher] via [New].
type Option func(*options) error
type options struct {
	logger     *slog.Logger
	tracer     trace.Tracer
	registerer prometheus.Registerer
	rt         http.RoundTripper
	routeOpts  []route.Option
}

// WithLogger injects a custom [slog.Logger] into every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer handed to every client.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithRegisterer registers the request counters with reg instead of the
// default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registerer must not be nil")
		}
		o.registerer = reg
		return nil
	}
}

// WithTransport sets the base transport of every client. Proxy settings
// only apply to the default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithRouteOptions passes opts to the completion router, e.g. to replace
// the handler of a mode.
func WithRouteOptions(opts ...route.Option) Option {
	return func(o *options) error {
		o.routeOpts = append(o.routeOpts, opts...)
		return nil
	}
}
