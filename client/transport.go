package client

import (
	"net/http"
	"net/url"
)

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// SetProxy routes the client's requests through host, authenticating
// with user and pass when user is set. An empty host connects directly.
// It is safe to call while a request is in flight; the new settings
// apply to connections dialed afterward.
func (c *Client) SetProxy(host, user, pass string) {
	if host == "" {
		c.proxy.Store(nil)
		return
	}

	u := &url.URL{Scheme: "http", Host: host}
	if parsed, err := url.Parse(host); err == nil && parsed.Host != "" {
		u = parsed
	}
	if user != "" {
		u.User = url.UserPassword(user, pass)
	}
	c.proxy.Store(u)
}

// UpdateProxy applies new proxy settings; see SetProxy.
func (c *Client) UpdateProxy(host, user, pass string) {
	c.SetProxy(host, user, pass)
}

// Proxy returns the proxy currently in use, or nil for direct connections.
func (c *Client) Proxy() *url.URL {
	u := c.proxy.Load()
	if u == nil {
		return nil
	}
	cpy := *u
	return &cpy
}

func (c *Client) proxyURL(*http.Request) (*url.URL, error) {
	return c.proxy.Load(), nil
}
