// Package client implements one asynchronous request/response lifecycle
// on top of [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithHooks(router),
//	)
//
// # Running Requests
//
// Set the mode and param, construct a [URL] and [Request], then drive the
// lifecycle with [Client.Run]:
//
//	_ = c.SetMode(mode.Details)
//	_ = c.SetParam(id)
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	err = c.Run(ctx, req)
//
// Run reports each step to the client's [Hooks] in a fixed order:
// SendRequestComplete, HeadersAvailable, Redirect (once per hop),
// DataAvailable and ReadData (once per chunk), then ReadComplete on
// success or Error on failure. A hook returning true stops the lifecycle
// without further callbacks.
//
// Redirects are never followed automatically. Each hop is validated,
// reported to Redirect and then re-issued by Run itself.
//
// # Errors
//
// Failures before the body is read completely are reported as a
// [*TransportError] whose [Kind] classifies the cause. A client runs one
// request at a time; Run and SetMode return [ErrBusy] while a request is
// in flight.
package client
