package fetcher

import (
	"errors"
	"fmt"
)

// Response classes returned by Execute. Match them with errors.Is.
var (
	ErrRemoteRejected     = errors.New("remote rejected request")
	ErrRemoteUnavailable  = errors.New("remote unavailable")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrTransport          = errors.New("transport error")
)

var errNotAbsolute = errors.New("uri must be absolute")

// StatusError is returned for every non-200 response.
type StatusError struct {
	Class      error // one of ErrRemoteRejected, ErrRemoteUnavailable, ErrUnexpectedResponse
	Method     string
	URI        string // redacted, without query
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s returned %d: %s", e.Class, e.Method, e.URI, e.StatusCode, trim(e.Body, 512))
}

func (e *StatusError) Unwrap() error { return e.Class }

// TransportError wraps failures that happen before a status code is known.
type TransportError struct {
	Method string
	URI    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrTransport, e.Method, e.URI, e.Err)
}

// Unwrap exposes both the transport class and the underlying cause.
func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// classify maps a status code to its response class; nil means success.
func classify(status int) error {
	switch {
	case status == 200:
		return nil
	case status >= 400 && status < 500:
		return ErrRemoteRejected
	case status >= 500:
		return ErrRemoteUnavailable
	default:
		return ErrUnexpectedResponse
	}
}

// trim returns at most n bytes from b.
func trim(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
