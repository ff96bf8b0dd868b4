package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// chunkSize is the read size of each OnDataAvailable/OnReadData step.
const chunkSize = 32 << 10 // 32KB

var (
	// ErrBusy is returned when a request is issued on, or the mode of,
	// a client that is already in flight.
	ErrBusy = errors.New("client busy")
	// ErrRedirectRejected is wrapped by a redirect [TransportError] when the
	// target fails validation.
	ErrRedirectRejected = errors.New("redirect rejected")
	// ErrTooManyRedirects is wrapped by a redirect [TransportError] when the
	// hop limit is exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Kind classifies a transport failure.
type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindDNS
	KindTLS
	KindConnection
	KindCanceled
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDNS:
		return "dns"
	case KindTLS:
		return "tls"
	case KindConnection:
		return "connection"
	case KindCanceled:
		return "canceled"
	case KindRedirect:
		return "redirect"
	default:
		return "other"
	}
}

// TransportError is reported to OnError when a request fails before its
// body has been read completely.
type TransportError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Code returns a stable numeric code for the failure kind.
func (e *TransportError) Code() int {
	return 12000 + int(e.Kind)
}

func newTransportError(op string, err error) *TransportError {
	return &TransportError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	var (
		dnsErr  *net.DNSError
		netErr  net.Error
		certErr *tls.CertificateVerificationError
		unknown x509.UnknownAuthorityError
		hostErr x509.HostnameError
		recErr  tls.RecordHeaderError
		opErr   *net.OpError
	)

	switch {
	case errors.Is(err, ErrRedirectRejected), errors.Is(err, ErrTooManyRedirects):
		return KindRedirect
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &dnsErr):
		return KindDNS
	case errors.As(err, &certErr), errors.As(err, &unknown), errors.As(err, &hostErr), errors.As(err, &recErr):
		return KindTLS
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.As(err, &opErr):
		return KindConnection
	default:
		return KindOther
	}
}
