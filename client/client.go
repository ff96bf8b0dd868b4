package client

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/dispatch/client/throttle"
	"github.com/adamwoolhether/dispatch/mode"
)

// defaultMaxRedirects bounds the redirect hops a single Run follows.
const defaultMaxRedirects = 10

// Client is one asynchronous request/response lifecycle. It carries the
// request mode, the caller's correlation param, progress counters and the
// accumulated response, and reports every lifecycle step to its Hooks.
//
// A Client is reusable across requests, but only one request may be in
// flight at a time.
type Client struct {
	id     string
	c      *http.Client
	logger *slog.Logger
	tracer trace.Tracer
	hooks  Hooks

	maxRedirects  int
	redirectHosts []string

	proxy atomic.Pointer[url.URL]

	inFlight atomic.Bool

	mu           sync.Mutex
	mode         mode.Mode
	param        any
	received     int64
	expected     int64
	statusCode   int
	header       http.Header
	body         bytes.Buffer
	downloadPath string
	idle         chan struct{}
}

// Build creates a Client in the Silent mode. Redirects are never followed
// automatically: Run intercepts them and reports each hop to OnRedirect.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		id:           uuid.New().String(),
		logger:       slog.Default(),
		tracer:       noop.NewTracerProvider().Tracer("no-op tracer"),
		hooks:        NopHooks{},
		maxRedirects: defaultMaxRedirects,
		mode:         mode.Silent,
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.hooks != nil {
		client.hooks = opts.hooks
	}
	if opts.maxRedirects != nil {
		client.maxRedirects = *opts.maxRedirects
	}
	client.redirectHosts = opts.redirectHosts

	if opts.proxy != nil {
		client.SetProxy(opts.proxy.host, opts.proxy.user, opts.proxy.pass)
	}

	var transport http.RoundTripper
	if opts.rt != nil {
		transport = opts.rt
	} else {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.Proxy = client.proxyURL
		transport = gzhttp.Transport(base)
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.Wrap(opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}

	client.c = &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	return client, nil
}

// ID returns the unique identifier of this client instance.
func (c *Client) ID() string { return c.id }

// Mode returns the current request mode.
func (c *Client) Mode() mode.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode sets the mode of the next request. The mode cannot change
// while a request is in flight.
func (c *Client) SetMode(m mode.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight.Load() {
		return ErrBusy
	}
	c.mode = m
	return nil
}

// Param returns the correlation value supplied when the request was built.
func (c *Client) Param() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.param
}

// SetParam stores the correlation value forwarded to the hooks.
func (c *Client) SetParam(param any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight.Load() {
		return ErrBusy
	}
	c.param = param
	return nil
}

// InFlight reports whether a request is currently running.
func (c *Client) InFlight() bool { return c.inFlight.Load() }

// Idle reports whether the client is Silent and not running a request.
func (c *Client) Idle() bool {
	return !c.inFlight.Load() && c.Mode() == mode.Silent
}

// BytesReceived returns the number of body bytes read so far.
func (c *Client) BytesReceived() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received
}

// BytesExpected returns the announced body length, or 0 when unknown.
func (c *Client) BytesExpected() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expected
}

// StatusCode returns the status code of the last response.
func (c *Client) StatusCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusCode
}

// Header returns the headers of the last response.
func (c *Client) Header() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.header.Clone()
}

// Body returns a copy of the accumulated response body.
func (c *Client) Body() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.body.Bytes())
}

// DownloadPath returns the on-disk target of a download-type request.
func (c *Client) DownloadPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.downloadPath
}

// SetDownloadPath sets the on-disk target of a download-type request.
// Hooks may change it while handling a redirect.
func (c *Client) SetDownloadPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloadPath = path
}

// /////////////////////////////////////////////////////////////////
// Lifecycle callbacks, invoked by Run in this order.

// OnSendRequestComplete fires once the request has been written.
func (c *Client) OnSendRequestComplete() bool { return c.hooks.SendRequestComplete(c) }

// OnHeadersAvailable fires once the response headers are known.
func (c *Client) OnHeadersAvailable() bool { return c.hooks.HeadersAvailable(c) }

// OnRedirect fires for every intercepted redirect hop.
func (c *Client) OnRedirect(location string) bool { return c.hooks.Redirect(c, location) }

// OnDataAvailable fires when a new chunk is ready to be read.
func (c *Client) OnDataAvailable() bool { return c.hooks.DataAvailable(c) }

// OnReadData fires after each chunk is appended to the body.
func (c *Client) OnReadData() bool { return c.hooks.ReadData(c) }

// OnReadComplete fires once the whole body has been read.
func (c *Client) OnReadComplete() bool { return c.hooks.ReadComplete(c) }

// OnError fires when the request fails before completing.
func (c *Client) OnError(err error) { c.hooks.Error(c, err) }
