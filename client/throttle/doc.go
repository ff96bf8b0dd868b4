// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound HTTP requests per destination host using a token-bucket
// algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		10,  // requests per second, per host
//		5,   // burst capacity, per host
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When a host's limit is exceeded, requests to that host block until a
// token becomes available or the request context is cancelled. Other
// hosts are unaffected.
//
// To rate-limit several transports together, create the buckets once
// with [NewLimiters] and wrap each transport with [Wrap].
package throttle
