// Package dispatch wires the request clients, the client pool, the proxy
// broadcaster and the completion router into one Dispatcher.
//
// Requests are issued asynchronously. Completion handlers never issue
// requests themselves: they return a route.Next, which the Dispatcher
// schedules on its queue once the current callback has returned.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/dispatch/client"
	"github.com/adamwoolhether/dispatch/client/download"
	"github.com/adamwoolhether/dispatch/client/throttle"
	"github.com/adamwoolhether/dispatch/config"
	"github.com/adamwoolhether/dispatch/mode"
	"github.com/adamwoolhether/dispatch/pool"
	"github.com/adamwoolhether/dispatch/proxy"
	"github.com/adamwoolhether/dispatch/route"
	"github.com/adamwoolhether/dispatch/stats"
)

// ErrNoRequest is returned when a chained request has no builder.
var ErrNoRequest = errors.New("chained request without builder")

// Dispatcher issues requests and runs the requests chained by their
// completion handlers.
type Dispatcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    config.Config
	logger *slog.Logger
	tracer trace.Tracer
	rt     http.RoundTripper

	// limiters is shared by every client.
	limiters *throttle.Limiters

	router *route.Router
	pool   *pool.Pool
	proxy  *proxy.Configurator
	stats  *stats.Stats
	queue  *download.Queue

	mu    sync.Mutex
	adhoc map[*client.Client]struct{}
}

// New creates a Dispatcher from cfg. env supplies the collaborators the
// completion handlers call into; its torrent settings, data directory
// and debug flag are taken from cfg. Without an Account, the configured
// account user is remembered by a route.LocalAccount.
func New(ctx context.Context, cfg config.Config, env route.Env, optFns ...Option) (*Dispatcher, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying dispatcher option: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	d := &Dispatcher{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
		rt:     opts.rt,
		queue:  download.NewQueue(cfg.HTTP.MaxConcurrent),
		adhoc:  make(map[*client.Client]struct{}),
	}
	if opts.logger != nil {
		d.logger = opts.logger
	}
	if opts.tracer != nil {
		d.tracer = opts.tracer
	}
	if cfg.HTTP.ThrottleRPS > 0 {
		limiters, err := throttle.NewLimiters(cfg.HTTP.ThrottleRPS, cfg.HTTP.ThrottleBurst)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("creating throttle: %w", err)
		}
		d.limiters = limiters
	}
	d.stats = stats.New(opts.registerer)

	env.Torrent = torrentSettings(cfg.Torrent)
	env.DataDir = cfg.App.DataDir
	env.Debug = cfg.App.Debug
	if env.Store == nil {
		env.Store = &route.FileStore{Logger: d.logger}
	}
	if env.Account == nil {
		env.Account = route.NewLocalAccount(cfg.Account.User)
	}

	routeOpts := append([]route.Option{
		route.WithLogger(d.logger),
		route.WithRecorder(d.stats),
	}, opts.routeOpts...)

	router, err := route.New(ctx, env, d, routeOpts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating router: %w", err)
	}
	d.router = router

	p, err := pool.New(func(pool.Key) (*client.Client, error) {
		return d.newClient()
	}, pool.WithLogger(d.logger))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	d.pool = p

	d.proxy = proxy.New(cfg.Proxy.Settings(), d.logger)
	d.proxy.Register(d.pool)

	return d, nil
}

func (d *Dispatcher) newClient() (*client.Client, error) {
	opts := []client.Option{
		client.WithHooks(d.router),
		client.WithLogger(d.logger),
		client.WithTracer(d.tracer),
		client.WithUserAgent(d.cfg.App.Agent()),
		client.WithMaxRedirects(d.cfg.HTTP.MaxRedirects),
		client.WithRedirectHosts(d.cfg.HTTP.RedirectHosts...),
	}
	if d.cfg.HTTP.Timeout > 0 {
		opts = append(opts, client.WithTimeout(d.cfg.HTTP.Timeout))
	}
	if d.limiters != nil {
		opts = append(opts, client.WithLimiters(d.limiters))
	}
	if d.rt != nil {
		opts = append(opts, client.WithTransport(d.rt))
	}

	return client.Build(opts...)
}

// BuildRequest creates an ad hoc client in mode m carrying param. The
// client receives proxy changes until its request has finished.
func (d *Dispatcher) BuildRequest(m mode.Mode, param any) (*client.Client, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("building request: invalid %s", m)
	}

	c, err := d.newClient()
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}
	if err := c.SetMode(m); err != nil {
		return nil, err
	}
	if err := c.SetParam(param); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.adhoc[c] = struct{}{}
	d.mu.Unlock()
	d.proxy.Register(c)

	return c, nil
}

// Acquire returns the pooled client for (family, id) set up for mode m
// and param. It returns client.ErrBusy when that client is in flight.
func (d *Dispatcher) Acquire(family mode.Family, id int, m mode.Mode, param any) (*client.Client, error) {
	c, err := d.pool.Acquire(family, id, m)
	if err != nil {
		return c, err
	}
	if err := c.SetParam(param); err != nil {
		return c, err
	}
	return c, nil
}

// Issue begins the lifecycle of req on c and returns immediately. The
// returned Result reports the transport outcome; the response itself is
// handled by the router.
func (d *Dispatcher) Issue(ctx context.Context, c *client.Client, req *http.Request) (*download.Result, error) {
	if d.queue.Closed() {
		return nil, download.ErrQueueShutdown
	}
	if c.InFlight() {
		return nil, client.ErrBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(d.ctx, cancel)

	res := d.queue.Start(ctx, func(ctx context.Context) error {
		defer func() {
			stop()
			cancel()
		}()
		return d.run(ctx, c, req)
	})

	return res, nil
}

func (d *Dispatcher) run(ctx context.Context, c *client.Client, req *http.Request) error {
	defer d.release(c)

	d.stats.Started()
	defer d.stats.Finished()

	return c.Run(ctx, req)
}

// release stops proxy broadcasts to a finished ad hoc client.
func (d *Dispatcher) release(c *client.Client) {
	d.mu.Lock()
	_, ok := d.adhoc[c]
	delete(d.adhoc, c)
	d.mu.Unlock()

	if ok {
		d.proxy.Unregister(c)
	}
}

// Chain implements route.Chainer. It schedules next on the queue and
// never blocks. A chained request for a pooled slot waits until the
// slot's current request has finished.
func (d *Dispatcher) Chain(next route.Next) error {
	if next.Request == nil {
		return ErrNoRequest
	}
	if d.queue.Closed() {
		return download.ErrQueueShutdown
	}

	d.stats.Chained(next.Mode.String())
	d.queue.Start(d.ctx, func(ctx context.Context) error {
		return d.runNext(ctx, next)
	})

	return nil
}

func (d *Dispatcher) runNext(ctx context.Context, next route.Next) error {
	c, err := d.clientFor(ctx, next)
	if err != nil {
		return fmt.Errorf("chaining %s: %w", next.Mode, err)
	}

	if next.DownloadPath != "" {
		c.SetDownloadPath(next.DownloadPath)
	}

	req, err := next.Request(ctx)
	if err != nil {
		d.release(c)
		return fmt.Errorf("chaining %s: building request: %w", next.Mode, err)
	}

	return d.run(ctx, c, req)
}

func (d *Dispatcher) clientFor(ctx context.Context, next route.Next) (*client.Client, error) {
	if next.Family == mode.FamilyNone {
		return d.BuildRequest(next.Mode, next.Param)
	}

	for {
		c, err := d.Acquire(next.Family, next.Resource, next.Mode, next.Param)
		if !errors.Is(err, client.ErrBusy) {
			return c, err
		}
		if err := c.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

// SetProxy applies s to every pooled and ad hoc client, and to clients
// created afterward.
func (d *Dispatcher) SetProxy(s proxy.Settings) {
	d.proxy.Set(s)
}

// Proxy returns the proxy settings in effect.
func (d *Dispatcher) Proxy() proxy.Settings {
	return d.proxy.Current()
}

// Cleanup releases idle pooled clients, or all of them when force is set.
func (d *Dispatcher) Cleanup(force bool) int {
	return d.pool.Cleanup(force)
}

// Pool returns the client pool.
func (d *Dispatcher) Pool() *pool.Pool { return d.pool }

// Router returns the completion router.
func (d *Dispatcher) Router() *route.Router { return d.router }

// Stats returns the request counters.
func (d *Dispatcher) Stats() *stats.Stats { return d.stats }

// Wait blocks until every issued and chained request has finished and
// returns their transport errors joined.
func (d *Dispatcher) Wait() error {
	return d.queue.Wait()
}

// Shutdown stops accepting requests and waits for the running ones. When
// ctx ends first, the running requests are cancelled. The pool is
// released either way.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.queue.Shutdown()

	done := make(chan error, 1)
	go func() {
		done <- d.queue.Wait()
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		d.cancel()
		<-done
		err = ctx.Err()
	}

	d.cancel()
	d.proxy.Unregister(d.pool)
	n := d.pool.Cleanup(true)
	d.logger.Info("dispatcher shut down", "released", n)

	return err
}

func torrentSettings(cfg config.TorrentConfig) route.TorrentSettings {
	s := route.TorrentSettings{
		AppPath:      cfg.AppPath,
		SetFolder:    cfg.SetFolder,
		UseFolder:    cfg.UseFolder,
		DownloadPath: cfg.DownloadPath,
		CreateFolder: cfg.CreateFolder,
	}

	switch cfg.NewAction {
	case "notify":
		s.NewAction = route.TorrentActionNotify
	case "download":
		s.NewAction = route.TorrentActionDownload
	}

	switch cfg.AppMode {
	case "default":
		s.AppMode = route.TorrentAppDefault
	case "custom":
		s.AppMode = route.TorrentAppCustom
	}

	return s
}
