package client

// Hooks receives the lifecycle callbacks of a [Client]. Callbacks for one
// client are never delivered concurrently. Every bool-returning callback
// returns true only when it started a chained request and the current
// one must be torn down without further default processing.
type Hooks interface {
	SendRequestComplete(c *Client) bool
	HeadersAvailable(c *Client) bool
	Redirect(c *Client, location string) bool
	DataAvailable(c *Client) bool
	ReadData(c *Client) bool
	ReadComplete(c *Client) bool
	Error(c *Client, err error)
}

// NopHooks ignores every callback.
type NopHooks struct{}

func (NopHooks) SendRequestComplete(*Client) bool { return false }
func (NopHooks) HeadersAvailable(*Client) bool    { return false }
func (NopHooks) Redirect(*Client, string) bool    { return false }
func (NopHooks) DataAvailable(*Client) bool       { return false }
func (NopHooks) ReadData(*Client) bool            { return false }
func (NopHooks) ReadComplete(*Client) bool        { return false }
func (NopHooks) Error(*Client, error)             {}
