package client_test

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/dispatch/client"
	"github.com/adamwoolhether/dispatch/mode"
)

// recorder captures lifecycle callbacks. A non-empty stopAt makes the
// named callback report a chained request.
type recorder struct {
	mu        sync.Mutex
	events    []string
	locations []string
	err       error
	received  []int64
	stopAt    string
	hold      chan struct{}
	entered   chan struct{}
}

func (r *recorder) record(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.events); n == 0 || r.events[n-1] != event {
		r.events = append(r.events, event)
	}
	return r.stopAt == event
}

func (r *recorder) SendRequestComplete(*client.Client) bool { return r.record("send") }

func (r *recorder) HeadersAvailable(*client.Client) bool {
	if r.entered != nil {
		close(r.entered)
	}
	if r.hold != nil {
		<-r.hold
	}
	return r.record("headers")
}

func (r *recorder) Redirect(_ *client.Client, location string) bool {
	r.mu.Lock()
	r.locations = append(r.locations, location)
	r.mu.Unlock()
	return r.record("redirect")
}

func (r *recorder) DataAvailable(*client.Client) bool { return r.record("data") }

func (r *recorder) ReadData(c *client.Client) bool {
	r.mu.Lock()
	r.received = append(r.received, c.BytesReceived())
	r.mu.Unlock()
	return r.record("read")
}

func (r *recorder) ReadComplete(*client.Client) bool { return r.record("complete") }

func (r *recorder) Error(_ *client.Client, err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.record("error")
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newRequest(t *testing.T, rawURL string) *http.Request {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parsing url: %v", err)
	}
	req, err := client.Request(t.Context(), u, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	return req
}

func TestRun_LifecycleOrder(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 100<<10)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	rec := &recorder{}
	c, err := client.Build(client.WithHooks(rec))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if err := c.SetMode(mode.Details); err != nil {
		t.Fatal(err)
	}
	if err := c.SetParam(42); err != nil {
		t.Fatal(err)
	}

	if err := c.Run(t.Context(), newRequest(t, ts.URL)); err != nil {
		t.Fatalf("exp nil err; got: %v", err)
	}

	// Consecutive duplicate chunk events are collapsed by the recorder.
	events := rec.snapshot()
	if events[0] != "send" || events[1] != "headers" || events[len(events)-1] != "complete" {
		t.Errorf("unexpected lifecycle order: %v", events)
	}
	for _, e := range events[2 : len(events)-1] {
		if e != "data" && e != "read" {
			t.Errorf("unexpected event %q between headers and complete: %v", e, events)
		}
	}

	if got := c.BytesExpected(); got != int64(len(body)) {
		t.Errorf("exp expected bytes %d; got %d", len(body), got)
	}
	if got := c.BytesReceived(); got != int64(len(body)) {
		t.Errorf("exp received bytes %d; got %d", len(body), got)
	}
	if !bytes.Equal(c.Body(), body) {
		t.Error("exp accumulated body to match the served body")
	}
	if c.StatusCode() != http.StatusOK {
		t.Errorf("exp status %d; got %d", http.StatusOK, c.StatusCode())
	}
	if c.Param() != 42 {
		t.Errorf("exp param 42; got %v", c.Param())
	}
	if c.Mode() != mode.Silent {
		t.Errorf("exp mode to reset to %s; got %s", mode.Silent, c.Mode())
	}

	for i := 1; i < len(rec.received); i++ {
		if rec.received[i] < rec.received[i-1] {
			t.Fatalf("exp non-decreasing received counter; got %v", rec.received)
		}
	}
}

func TestRun_UnknownLength(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 3 {
			_, _ = w.Write([]byte("chunk"))
			w.(http.Flusher).Flush()
		}
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Run(t.Context(), newRequest(t, ts.URL)); err != nil {
		t.Fatalf("exp nil err; got: %v", err)
	}

	if c.BytesExpected() != 0 {
		t.Errorf("exp unknown length to be reported as 0; got %d", c.BytesExpected())
	}
	if string(c.Body()) != "chunkchunkchunk" {
		t.Errorf("exp streamed body; got %q", c.Body())
	}
}

func TestRun_Redirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/final.torrent", http.StatusFound)
	})
	mux.HandleFunc("/files/final.torrent", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	t.Run("followed", func(t *testing.T) {
		rec := &recorder{}
		c, err := client.Build(client.WithHooks(rec))
		if err != nil {
			t.Fatal(err)
		}

		if err := c.Run(t.Context(), newRequest(t, ts.URL+"/start")); err != nil {
			t.Fatalf("exp nil err; got: %v", err)
		}

		if diff := cmp.Diff([]string{ts.URL + "/files/final.torrent"}, rec.locations); diff != "" {
			t.Errorf("redirect locations mismatch (-exp +got):\n%s", diff)
		}
		if string(c.Body()) != "payload" {
			t.Errorf("exp body from redirect target; got %q", c.Body())
		}
	})

	t.Run("torn down by hook", func(t *testing.T) {
		rec := &recorder{stopAt: "redirect"}
		c, err := client.Build(client.WithHooks(rec))
		if err != nil {
			t.Fatal(err)
		}

		if err := c.Run(t.Context(), newRequest(t, ts.URL+"/start")); err != nil {
			t.Fatalf("exp nil err; got: %v", err)
		}

		if diff := cmp.Diff([]string{"send", "redirect"}, rec.snapshot()); diff != "" {
			t.Errorf("lifecycle mismatch (-exp +got):\n%s", diff)
		}
	})
}

func TestRun_RedirectRejected(t *testing.T) {
	testCases := map[string]struct {
		target string
		opts   []client.Option
		expErr error
	}{
		"host not allowed": {
			target: "/next",
			opts:   []client.Option{client.WithRedirectHosts("example.com")},
			expErr: client.ErrRedirectRejected,
		},
		"unsupported scheme": {
			target: "ftp://example.com/file",
			expErr: client.ErrRedirectRejected,
		},
		"too many hops": {
			target: "/loop",
			opts:   []client.Option{client.WithMaxRedirects(2)},
			expErr: client.ErrTooManyRedirects,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", tc.target)
				w.WriteHeader(http.StatusFound)
			}))
			defer ts.Close()

			rec := &recorder{}
			c, err := client.Build(append(tc.opts, client.WithHooks(rec))...)
			if err != nil {
				t.Fatal(err)
			}

			err = c.Run(t.Context(), newRequest(t, ts.URL+"/loop"))
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}

			var tErr *client.TransportError
			if !errors.As(rec.err, &tErr) {
				t.Fatalf("exp OnError to receive a *TransportError; got: %v", rec.err)
			}
			if tErr.Kind != client.KindRedirect {
				t.Errorf("exp kind %s; got %s", client.KindRedirect, tErr.Kind)
			}
		})
	}
}

func TestRun_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	rec := &recorder{}
	c, err := client.Build(client.WithHooks(rec))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetMode(mode.RefreshList); err != nil {
		t.Fatal(err)
	}

	if err := c.Run(t.Context(), newRequest(t, addr)); err == nil {
		t.Fatal("exp error for closed server")
	}

	var tErr *client.TransportError
	if !errors.As(rec.err, &tErr) {
		t.Fatalf("exp *TransportError; got: %v", rec.err)
	}
	if tErr.Kind != client.KindConnection {
		t.Errorf("exp kind %s; got %s", client.KindConnection, tErr.Kind)
	}
	if tErr.Code() != 12000+int(client.KindConnection) {
		t.Errorf("unexpected code %d", tErr.Code())
	}
	if diff := cmp.Diff([]string{"error"}, rec.snapshot()); diff != "" {
		t.Errorf("lifecycle mismatch (-exp +got):\n%s", diff)
	}
	if c.Mode() != mode.Silent {
		t.Errorf("exp mode to reset to %s after error; got %s", mode.Silent, c.Mode())
	}
}

func TestRun_Busy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	rec := &recorder{hold: make(chan struct{}), entered: make(chan struct{})}
	c, err := client.Build(client.WithHooks(rec))
	if err != nil {
		t.Fatal(err)
	}

	req := newRequest(t, ts.URL)
	done := make(chan error, 1)
	go func() { done <- c.Run(t.Context(), req) }()

	select {
	case <-rec.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached HeadersAvailable")
	}

	if !c.InFlight() {
		t.Error("exp client to report in flight")
	}
	if err := c.Run(t.Context(), newRequest(t, ts.URL)); !errors.Is(err, client.ErrBusy) {
		t.Errorf("exp err %v; got: %v", client.ErrBusy, err)
	}
	if err := c.SetMode(mode.Image); !errors.Is(err, client.ErrBusy) {
		t.Errorf("exp SetMode err %v; got: %v", client.ErrBusy, err)
	}

	close(rec.hold)

	if err := c.Wait(t.Context()); err != nil {
		t.Fatalf("exp nil wait err; got: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("exp nil run err; got: %v", err)
	}
	if !c.Idle() {
		t.Error("exp client to be idle after the request")
	}
}

func TestRun_ChainedAtReadComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	rec := &recorder{stopAt: "complete"}
	c, err := client.Build(client.WithHooks(rec))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Run(t.Context(), newRequest(t, ts.URL)); err != nil {
		t.Errorf("exp chained teardown to return nil; got: %v", err)
	}
}

func TestClient_WithUserAgent(t *testing.T) {
	expectedUA := "TestUserAgent/1.0"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithUserAgent(expectedUA), client.WithThrottle(10, 1))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := c.Run(t.Context(), newRequest(t, ts.URL)); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestClient_Proxy(t *testing.T) {
	var (
		mu        sync.Mutex
		gotHost   string
		gotAuth   string
		proxyHits int
	)
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotHost = r.URL.Host
		gotAuth = r.Header.Get("Proxy-Authorization")
		proxyHits++
		mu.Unlock()
		_, _ = w.Write([]byte("proxied"))
	}))
	defer proxySrv.Close()

	proxyURL, err := url.Parse(proxySrv.URL)
	if err != nil {
		t.Fatal(err)
	}

	c, err := client.Build(client.WithProxy(proxyURL.Host, "user", "secret"))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Run(t.Context(), newRequest(t, "http://list.example.invalid/load")); err != nil {
		t.Fatalf("exp nil err; got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if proxyHits != 1 {
		t.Fatalf("exp 1 request through the proxy; got %d", proxyHits)
	}
	if gotHost != "list.example.invalid" {
		t.Errorf("exp proxied host %q; got %q", "list.example.invalid", gotHost)
	}
	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("exp basic proxy authorization; got %q", gotAuth)
	}
	if string(c.Body()) != "proxied" {
		t.Errorf("exp proxied body; got %q", c.Body())
	}

	c.UpdateProxy("", "", "")
	if c.Proxy() != nil {
		t.Error("exp empty host to clear the proxy")
	}
}

func TestBuild_Validation(t *testing.T) {
	testCases := map[string]client.Option{
		"nil transport":          client.WithTransport(nil),
		"negative timeout":       client.WithTimeout(-time.Second),
		"zero throttle":          client.WithThrottle(0, 1),
		"nil hooks":              client.WithHooks(nil),
		"negative max redirects": client.WithMaxRedirects(-1),
	}

	for name, opt := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := client.Build(opt); err == nil {
				t.Error("exp error; got nil")
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	var got []string
	for k := client.KindOther; k <= client.KindRedirect; k++ {
		got = append(got, fmt.Sprint(k))
	}

	exp := []string{"other", "timeout", "dns", "tls", "connection", "canceled", "redirect"}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("kind names mismatch (-exp +got):\n%s", diff)
	}
}
