// Package pool keeps at most one client per (family, resource) pair so
// that concurrent requests for the same resource are coalesced.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adamwoolhether/dispatch/client"
	"github.com/adamwoolhether/dispatch/mode"
)

var (
	// ErrUnknownResource is returned for resource ids that do not denote
	// a real resource (zero or negative).
	ErrUnknownResource = errors.New("unknown resource")
	// ErrUnknownFamily is returned for families that were not registered.
	ErrUnknownFamily = errors.New("unknown family")
)

// Key identifies one pooled client.
type Key struct {
	Family mode.Family
	ID     int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Family, k.ID)
}

// Factory builds the client for a key the first time it is requested.
type Factory func(key Key) (*client.Client, error)

type proxySettings struct {
	host, user, pass string
}

// Pool owns every client it creates. Callers never discard pooled
// clients themselves; they call Cleanup.
type Pool struct {
	factory  Factory
	logger   *slog.Logger
	families map[mode.Family]struct{}

	mu      sync.Mutex
	clients map[Key]*client.Client
	proxy   proxySettings
}

// New creates a Pool that builds clients with factory. The image and
// search families are registered unless WithFamilies says otherwise.
func New(factory Factory, optFns ...Option) (*Pool, error) {
	if factory == nil {
		return nil, errors.New("factory must not be nil")
	}

	opts := options{
		families: []mode.Family{mode.FamilyImage, mode.FamilySearch},
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying pool option: %w", err)
		}
	}

	p := &Pool{
		factory:  factory,
		logger:   slog.Default(),
		families: make(map[mode.Family]struct{}, len(opts.families)),
		clients:  make(map[Key]*client.Client),
	}
	if opts.logger != nil {
		p.logger = opts.logger
	}
	for _, f := range opts.families {
		p.families[f] = struct{}{}
	}

	return p, nil
}

// GetClient returns the client for (family, id), constructing it with the
// current proxy settings on first use. Concurrent callers for the same key
// observe the same instance.
func (p *Pool) GetClient(family mode.Family, id int) (*client.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.get(Key{Family: family, ID: id})
}

// Acquire returns the client for (family, id) with its mode set to m. The
// lookup and the mode change happen under the pool lock, so Cleanup cannot
// reclaim the client in between. It returns client.ErrBusy when the
// client already has a request in flight.
func (p *Pool) Acquire(family mode.Family, id int, m mode.Mode) (*client.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.get(Key{Family: family, ID: id})
	if err != nil {
		return nil, err
	}
	if err := c.SetMode(m); err != nil {
		return c, err
	}

	return c, nil
}

func (p *Pool) get(key Key) (*client.Client, error) {
	if key.ID <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, key)
	}
	if _, ok := p.families[key.Family]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, key.Family)
	}

	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	c, err := p.factory(key)
	if err != nil {
		return nil, fmt.Errorf("building client %s: %w", key, err)
	}
	c.SetProxy(p.proxy.host, p.proxy.user, p.proxy.pass)
	p.clients[key] = c

	p.logger.Debug("pooled client created", "key", key.String(), "client", c.ID())

	return c, nil
}

// Cleanup releases idle clients, or every client when force is set, and
// returns how many were released. A client is idle when its mode is
// Silent and no request is in flight. Released in-flight clients finish
// their current request but are no longer reachable through the pool.
func (p *Pool) Cleanup(force bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var n int
	for key, c := range p.clients {
		if !force && !c.Idle() {
			continue
		}
		delete(p.clients, key)
		n++
	}

	if n > 0 {
		p.logger.Debug("pool cleanup", "released", n, "remaining", len(p.clients), "force", force)
	}

	return n
}

// UpdateProxy applies new proxy settings to every pooled client and to
// clients created afterward.
func (p *Pool) UpdateProxy(host, user, pass string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.proxy = proxySettings{host: host, user: user, pass: pass}
	for _, c := range p.clients {
		c.UpdateProxy(host, user, pass)
	}
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
