package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's
// Requests Per Second and Burst Rate
type Config struct {
	RPS   int
	Burst int
}

// Limiters holds one time/rate token bucket per destination host. A
// single Limiters may back any number of round trippers, which then
// draw from the same buckets.
type Limiters struct {
	cfg Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLimiters returns an empty set of per-host buckets refilled at rps
// and holding at most burst tokens.
func NewLimiters(rps, burst int) (*Limiters, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	return &Limiters{
		cfg:      Config{RPS: rps, Burst: burst},
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// Config returns the rate and burst of every bucket.
func (l *Limiters) Config() Config { return l.cfg }

func (l *Limiters) get(host string) *rate.Limiter {
	host = strings.ToLower(host)

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)
		l.limiters[host] = lim
	}

	return lim
}

// throttle is an http.RoundTripper, restricting outbound calls with the
// bucket of each request's host.
type throttle struct {
	limiters *Limiters
	next     http.RoundTripper
	logFn    func() *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that throttles outbound requests
// using a token bucket rate limiter per host. logFn lazily resolves the logger
// at request time, making option ordering irrelevant. A nil-returning logFn
// disables the wait logging.
func NewRoundTripper(rps, burst int, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	limiters, err := NewLimiters(rps, burst)
	if err != nil {
		return nil, err
	}

	return Wrap(limiters, logFn, next)
}

// Wrap returns an http.RoundTripper that throttles next with the shared
// limiters. See NewRoundTripper for logFn.
func Wrap(limiters *Limiters, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if limiters == nil {
		return nil, errors.New("limiters must not be nil")
	}
	if next == nil {
		return nil, errors.New("transport must not be nil")
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	return &throttle{limiters: limiters, next: next, logFn: logFn}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	limiter := t.limiters.get(r.URL.Host)
	cfg := t.limiters.cfg

	var waited time.Duration
	logger := t.logFn()
	if logger != nil && limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "host", r.URL.Host, "rate", cfg.RPS, "burst", cfg.Burst, "path", r.URL.Path)

		defer func() {
			logger.Info("throttle wait complete", "host", r.URL.Host, "waited", waited.String(), "rate", cfg.RPS, "burst", cfg.Burst)
		}()
	}

	start := time.Now()

	err := limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
