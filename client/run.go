package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/dispatch/mode"
)

// errTornDown signals that a hook chained a new request and the current
// one must stop without further default processing.
var errTornDown = errors.New("torn down by hook")

// Run issues req and drives the lifecycle callbacks until the body has
// been read or the request fails. It blocks until the lifecycle ends and
// returns ErrBusy if another request is already in flight.
//
// The mode returns to Silent once Run returns.
func (c *Client) Run(ctx context.Context, req *http.Request) error {
	m, err := c.begin()
	if err != nil {
		return err
	}
	defer c.finish()

	ctx, span := c.tracer.Start(ctx, "client.run", trace.WithAttributes(
		attribute.String("client.id", c.id),
		attribute.String("client.mode", m.String()),
		attribute.String("http.url", req.URL.Redacted()),
	))
	defer span.End()

	err = c.run(ctx, req)
	if errors.Is(err, errTornDown) {
		span.SetAttributes(attribute.Bool("client.chained", true))
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("http.status_code", c.StatusCode()))
	return nil
}

// Wait blocks until the in-flight request, if any, has finished.
func (c *Client) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	if idle == nil {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) run(ctx context.Context, req *http.Request) error {
	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	var resp *http.Response
	for hops := 0; ; hops++ {
		var err error
		resp, err = c.send(ctx, req)
		if err != nil {
			return err
		}

		location := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || location == "" {
			break
		}
		discard(resp)

		if hops >= c.maxRedirects {
			return c.fail(&TransportError{Kind: KindRedirect, Op: "following redirect", Err: ErrTooManyRedirects})
		}

		target, err := req.URL.Parse(location)
		if err != nil {
			return c.fail(&TransportError{Kind: KindRedirect, Op: "parsing redirect", Err: fmt.Errorf("%w: %w", ErrRedirectRejected, err)})
		}
		if err := c.checkRedirect(req.URL, target); err != nil {
			return c.fail(&TransportError{Kind: KindRedirect, Op: "validating redirect", Err: err})
		}

		c.logger.Debug("redirecting", "client", c.id, "location", target.String())
		if c.OnRedirect(target.String()) {
			return errTornDown
		}

		req, err = redirectRequest(ctx, req, target, resp.StatusCode)
		if err != nil {
			return c.fail(&TransportError{Kind: KindRedirect, Op: "building redirect", Err: err})
		}
	}
	defer discard(resp)

	c.mu.Lock()
	c.statusCode = resp.StatusCode
	c.header = resp.Header
	c.expected = max(resp.ContentLength, 0)
	c.mu.Unlock()

	if c.OnHeadersAvailable() {
		return errTornDown
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if c.OnDataAvailable() {
				return errTornDown
			}

			c.mu.Lock()
			c.body.Write(buf[:n])
			c.received += int64(n)
			c.mu.Unlock()

			if c.OnReadData() {
				return errTornDown
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.fail(newTransportError("reading response body", err))
		}
	}

	if c.OnReadComplete() {
		return errTornDown
	}

	return nil
}

// send performs one round trip. OnSendRequestComplete fires once the
// request is written, and at the latest before send returns.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	var (
		once     sync.Once
		tornDown bool
	)
	sent := func() {
		once.Do(func() { tornDown = c.OnSendRequestComplete() })
	}

	ct := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				sent()
			}
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(ctx, ct))

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, c.fail(newTransportError("exec http do", err))
	}

	sent()
	if tornDown {
		discard(resp)
		return nil, errTornDown
	}

	return resp, nil
}

func (c *Client) fail(err error) error {
	c.logger.Error("request failed", "client", c.id, "mode", c.Mode().String(), "error", err)
	c.OnError(err)
	return err
}

func (c *Client) begin() (mode.Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inFlight.CompareAndSwap(false, true) {
		return c.mode, ErrBusy
	}

	c.received = 0
	c.expected = 0
	c.statusCode = 0
	c.header = nil
	c.body.Reset()
	c.idle = make(chan struct{})

	return c.mode, nil
}

func (c *Client) finish() {
	c.mu.Lock()
	c.mode = mode.Silent
	idle := c.idle
	c.idle = nil
	c.inFlight.Store(false)
	c.mu.Unlock()

	close(idle)
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// redirectRequest builds the request for the next hop. 301, 302 and 303
// switch to GET; 307 and 308 replay the method and body.
func redirectRequest(ctx context.Context, prev *http.Request, target *url.URL, code int) (*http.Request, error) {
	method := prev.Method
	var body io.ReadCloser
	switch code {
	case http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		if prev.GetBody != nil {
			b, err := prev.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding body: %w", err)
			}
			body = b
		}
	default:
		if method != http.MethodHead {
			method = http.MethodGet
		}
	}

	next, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}
	if body != nil {
		next.GetBody = prev.GetBody
		next.ContentLength = prev.ContentLength
	}

	sameHost := prev.URL.Hostname() == target.Hostname()
	for k, v := range prev.Header {
		if !sameHost && (k == "Authorization" || k == "Cookie") {
			continue
		}
		if body == nil && k == "Content-Type" {
			continue
		}
		next.Header[k] = v
	}

	return next, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, chunkSize))
	_ = resp.Body.Close()
}
