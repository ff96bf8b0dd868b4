package route

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/dispatch/client"
	"github.com/adamwoolhether/dispatch/mode"
)

// ProtocolError is a response with an unexpected status code or a body
// that failed validation.
type ProtocolError struct {
	Mode       mode.Mode
	StatusCode int
	Reason     string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Mode, e.StatusCode, e.Reason)
}

// ApplicationError is a well-formed response whose content is rejected,
// such as a login for another user.
type ApplicationError struct {
	Mode   mode.Mode
	Reason string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Mode, e.Reason)
}

// ErrorText formats err as the diagnostic shown to the user.
func ErrorText(err error) string {
	var tErr *client.TransportError
	if errors.As(err, &tErr) {
		return fmt.Sprintf("HTTP error #%d: %v", tErr.Code(), tErr.Err)
	}
	return fmt.Sprintf("HTTP error: %v", err)
}
