// Package proxy holds the current proxy settings and broadcasts changes
// to every registered client and pool.
package proxy

import (
	"log/slog"
	"sync"
)

// Settings describes an HTTP proxy. An empty Host means direct connections.
type Settings struct {
	Host string
	User string
	Pass string
}

// Target receives proxy changes. *client.Client and *pool.Pool satisfy it.
type Target interface {
	UpdateProxy(host, user, pass string)
}

// Configurator owns the current proxy settings.
type Configurator struct {
	logger *slog.Logger

	mu      sync.Mutex
	current Settings
	targets map[Target]struct{}
}

// New creates a Configurator starting from initial.
func New(initial Settings, logger *slog.Logger) *Configurator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Configurator{
		logger:  logger,
		current: initial,
		targets: make(map[Target]struct{}),
	}
}

// Current returns the settings in effect.
func (c *Configurator) Current() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set stores s and applies it to every registered target.
func (c *Configurator) Set(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = s
	for t := range c.targets {
		t.UpdateProxy(s.Host, s.User, s.Pass)
	}

	c.logger.Info("proxy updated", "host", s.Host, "auth", s.User != "", "targets", len(c.targets))
}

// Register applies the current settings to t and keeps it informed of
// later changes.
func (c *Configurator) Register(t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.targets[t] = struct{}{}
	t.UpdateProxy(c.current.Host, c.current.User, c.current.Pass)
}

// Unregister stops broadcasting to t.
func (c *Configurator) Unregister(t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.targets, t)
}
