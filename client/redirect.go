package client

import (
	"fmt"
	"net/url"
	"strings"
)

// checkRedirect validates a redirect hop from one URL to the next.
func (c *Client) checkRedirect(from, to *url.URL) error {
	switch to.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrRedirectRejected, to.Scheme)
	}

	if from.Scheme == "https" && to.Scheme == "http" {
		return fmt.Errorf("%w: downgrade to %s", ErrRedirectRejected, to.Redacted())
	}

	if to.Hostname() == "" {
		return fmt.Errorf("%w: empty host", ErrRedirectRejected)
	}

	if len(c.redirectHosts) > 0 && !hostAllowed(to.Hostname(), c.redirectHosts) {
		return fmt.Errorf("%w: host %q not allowed", ErrRedirectRejected, to.Hostname())
	}

	return nil
}

// hostAllowed matches host against allowed entries, either exactly or
// as a subdomain.
func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSuffix(a, "."))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}
