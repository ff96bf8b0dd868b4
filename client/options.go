package client

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/dispatch/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	rt            http.RoundTripper
	timeout       *time.Duration
	userAgent     string
	throttle      *throttle.Limiters
	logger        *slog.Logger
	tracer        trace.Tracer
	hooks         Hooks
	proxy         *proxySettings
	maxRedirects  *int
	redirectHosts []string
}

type proxySettings struct {
	host, user, pass string
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
// Proxy settings only apply to the default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables per-host token-bucket rate limiting with buckets
// owned by this client.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		limiters, err := throttle.NewLimiters(rps, burst)
		if err != nil {
			return err
		}
		c.throttle = limiters
		return nil
	}
}

// WithLimiters rate-limits the client with buckets shared by every
// client built with the same limiters.
func WithLimiters(limiters *throttle.Limiters) Option {
	return func(c *options) error {
		if limiters == nil {
			return errors.New("limiters must not be nil")
		}
		c.throttle = limiters
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to record one span per request.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		c.tracer = tracer
		return nil
	}
}

// WithHooks sets the receiver of the lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(c *options) error {
		if h == nil {
			return errors.New("hooks must not be nil")
		}
		c.hooks = h
		return nil
	}
}

// WithProxy applies proxy settings at construction time.
func WithProxy(host, user, pass string) Option {
	return func(c *options) error {
		c.proxy = &proxySettings{host: host, user: user, pass: pass}
		return nil
	}
}

// WithMaxRedirects bounds the redirect hops followed by a single request.
func WithMaxRedirects(n int) Option {
	return func(c *options) error {
		if n < 0 {
			return errors.New("max redirects must not be negative")
		}
		c.maxRedirects = &n
		return nil
	}
}

// WithRedirectHosts restricts redirect targets to the given hosts and
// their subdomains.
func WithRedirectHosts(hosts ...string) Option {
	return func(c *options) error {
		c.redirectHosts = hosts
		return nil
	}
}

// RequestOption is a functional option for [Request].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	body        any
	form        map[string][]string
	contentType *string
	cookies     []*http.Cookie
	headers     map[string][]string
	user, pass  *string
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		if opts.form != nil {
			return errors.New("cannot combine payload and form")
		}
		opts.body = body

		return nil
	}
}

// WithForm sets a form-encoded request body.
func WithForm(values map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		if opts.body != nil {
			return errors.New("cannot combine payload and form")
		}
		opts.form = values

		return nil
	}
}

// WithContentType overrides the Content-Type header.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}

		opts.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = cookies

		return nil
	}
}

// WithBasicAuth sets HTTP basic authentication credentials.
func WithBasicAuth(user, pass string) RequestOption {
	return func(opts *requestOpts) error {
		opts.user = &user
		opts.pass = &pass

		return nil
	}
}

// URLOption is a functional option for [URL].
type URLOption func(options *urlOpts)

type urlOpts struct {
	queryStrings map[string]string
	port         *int
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		opts.queryStrings = queryKV
	}
}

// WithPort sets the port number on the URL's host.
func WithPort(port int) URLOption {
	return func(opts *urlOpts) {
		opts.port = &port
	}
}
