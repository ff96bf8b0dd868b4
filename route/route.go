// Package route maps every request mode to what happens when its
// response arrives or its request fails. A Router receives the client
// lifecycle callbacks, reports status and progress, and hands finished
// responses to the handler registered for the client's mode.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/adamwoolhether/dispatch/client"
	"github.com/adamwoolhether/dispatch/mode"
)

// Next describes a chained request. The Router never issues it itself;
// it passes it to a Chainer, which runs it after the current callback
// has returned.
type Next struct {
	Mode  mode.Mode
	Param any

	// Family and Resource select a pooled client. FamilyNone uses a
	// fresh client.
	Family   mode.Family
	Resource int

	// DownloadPath is the on-disk target of download-type modes.
	DownloadPath string

	Request func(ctx context.Context) (*http.Request, error)
}

// Chainer schedules chained requests. Chain must not block.
type Chainer interface {
	Chain(next Next) error
}

// Response is the finished exchange handed to a Handler.
type Response struct {
	Mode         mode.Mode
	Param        any
	StatusCode   int
	Header       http.Header
	Body         []byte
	DownloadPath string
}

// Outcome is what a Handler decided.
type Outcome struct {
	// Status is reported when Report is set. An empty Status clears the
	// status line.
	Status string
	Report bool

	// Next is chained when set.
	Next *Next

	// Err records a protocol or application failure. It is logged and
	// counted; the request itself still completed.
	Err error
}

func status(text string) Outcome { return Outcome{Status: text, Report: true} }

// Handler handles the response of one mode.
type Handler interface {
	Handle(ctx context.Context, env *Env, resp Response) Outcome
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, env *Env, resp Response) Outcome

func (f HandlerFunc) Handle(ctx context.Context, env *Env, resp Response) Outcome {
	return f(ctx, env, resp)
}

// Router implements client.Hooks.
type Router struct {
	ctx      context.Context
	env      *Env
	chain    Chainer
	logger   *slog.Logger
	recorder Recorder

	mu       sync.RWMutex
	handlers map[mode.Mode]Handler
	fallback Handler
}

// New creates a Router with the built-in handler table. chain may be
// nil, in which case no request is ever chained.
func New(ctx context.Context, env Env, chain Chainer, optFns ...Option) (*Router, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying router option: %w", err)
		}
	}

	if env.Logger == nil {
		env.Logger = opts.logger
	}

	r := &Router{
		ctx:      ctx,
		env:      env.withDefaults(),
		chain:    chain,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		handlers: defaultHandlers(),
		fallback: HandlerFunc(handleDefault),
	}
	if opts.logger != nil {
		r.logger = opts.logger
	}
	if opts.recorder != nil {
		r.recorder = opts.recorder
	}
	for m, h := range opts.handlers {
		r.handlers[m] = h
	}

	return r, nil
}

// Handle replaces the handler of m.
func (r *Router) Handle(m mode.Mode, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[m] = h
}

func (r *Router) handler(m mode.Mode) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[m]; ok {
		return h
	}
	return r.fallback
}

// Env returns the collaborators the Router was built with.
func (r *Router) Env() *Env { return r.env }

// /////////////////////////////////////////////////////////////////
// client.Hooks

func (r *Router) SendRequestComplete(c *client.Client) bool {
	if r.env.Debug {
		r.env.Status.ReportStatus("Connecting...")
	}
	return false
}

func (r *Router) HeadersAvailable(c *client.Client) bool {
	m := c.Mode()
	expected := c.BytesExpected()

	switch {
	case mode.Quiet(m):
	case mode.ClassOf(m) == mode.ClassUpdate:
		initProgress(r.env.UpdateProgress, expected)
		if m == mode.UpdateDownload {
			r.env.UpdateStatus.ReportStatus("Downloading updates...")
		}
	default:
		initProgress(r.env.Progress, expected)
	}

	return false
}

func initProgress(p ProgressReporter, expected int64) {
	if expected > 0 {
		p.SetProgressDeterminate(expected)
		return
	}
	p.SetProgressIndeterminate()
}

func (r *Router) Redirect(c *client.Client, location string) bool {
	if c.Mode() == mode.UpdateDownload {
		if path, ok := redirectPath(c.DownloadPath(), location); ok {
			c.SetDownloadPath(path)
			r.env.Updater.SetDownloadPath(path)
		}
	}

	r.logger.Debug("redirecting", "client", c.ID(), "mode", c.Mode().String(), "location", location)

	return false
}

func (r *Router) DataAvailable(*client.Client) bool { return false }

func (r *Router) ReadData(c *client.Client) bool {
	m := c.Mode()
	received, expected := c.BytesReceived(), c.BytesExpected()

	if mode.ClassOf(m) == mode.ClassUpdate {
		if expected > 0 {
			r.env.UpdateProgress.SetProgressValue(received)
		}
		return false
	}

	text, ok := mode.StatusText(m)
	if !ok {
		return false
	}

	if expected > 0 {
		r.env.Progress.SetProgressValue(received)
		text += fmt.Sprintf(" (%d%%)", Percent(received, expected))
	} else {
		text += " (" + FormatSize(received) + ")"
	}
	r.env.Status.ReportStatus(text)

	return false
}

func (r *Router) ReadComplete(c *client.Client) bool {
	r.env.Progress.ClearProgress()

	resp := Response{
		Mode:         c.Mode(),
		Param:        c.Param(),
		StatusCode:   c.StatusCode(),
		Header:       c.Header(),
		Body:         c.Body(),
		DownloadPath: c.DownloadPath(),
	}
	r.recorder.Succeeded(resp.Mode.String())

	out := r.invoke(resp)
	if out.Err != nil {
		r.logger.Warn("response rejected", "client", c.ID(), "mode", resp.Mode.String(), "error", out.Err)
	}
	if out.Report {
		r.env.Status.ReportStatus(out.Status)
	}

	if out.Next == nil || r.chain == nil {
		return false
	}
	if err := r.chain.Chain(*out.Next); err != nil {
		r.logger.Error("chaining request", "client", c.ID(), "mode", resp.Mode.String(), "next", out.Next.Mode.String(), "error", err)
		return false
	}

	r.logger.Info("request chained", "client", c.ID(), "mode", resp.Mode.String(), "next", out.Next.Mode.String())

	return true
}

// invoke runs the handler of resp.Mode, turning a panic into a failed
// outcome.
func (r *Router) invoke(resp Response) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			trace := debug.Stack()
			r.logger.Error("handler panic", "mode", resp.Mode.String(), "panic", rec, "trace", string(trace))
			out = Outcome{Err: fmt.Errorf("PANIC [%v]", rec)}
		}
	}()

	return r.handler(resp.Mode).Handle(r.ctx, r.env, resp)
}

func (r *Router) Error(c *client.Client, err error) {
	m := c.Mode()
	text := ErrorText(err)

	r.logger.Error("request error", "client", c.ID(), "mode", m.String(), "error", text)
	r.recorder.Failed(m.String())

	recoverFrom(r.env, m, text)

	r.env.Progress.ClearProgress()
}

// recoverFrom performs the shared error recovery of the class of m and
// clears that class's in-progress state.
func recoverFrom(env *Env, m mode.Mode, text string) {
	switch mode.ClassOf(m) {
	case mode.ClassAccount:
		env.Status.ReportStatus(text)
		env.Views.EnableInput(ViewMain, true)
	case mode.ClassSilent:
		if env.Debug {
			env.Status.ReportStatus(text)
		}
	case mode.ClassFeed:
		env.Status.ReportStatus(text)
		env.Views.EnableInput(ViewTorrent, true)
	case mode.ClassUpdate:
		env.Views.ShowMessage(ViewUpdate, "Update", text)
		env.Views.Close(ViewUpdate)
	default:
		env.Queue.SetUpdating(false)
		env.Status.ReportStatus(text)
		env.Views.EnableInput(ViewMain, true)
	}
}

type nopRecorder struct{}

func (nopRecorder) Succeeded(string) {}
func (nopRecorder) Failed(string)    {}
