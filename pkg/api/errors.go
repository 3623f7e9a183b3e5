package api

import (
	"errors"
	"fmt"
)

// TransportError is a network failure or a non-2xx response. StatusCode is
// 0 when no response was received.
type TransportError struct {
	Op         string // operation name, e.g. "list_nodes"
	StatusCode int
	StatusText string
	Detail     string // server-provided detail, first 512 bytes
	Err        error  // underlying network error, if any
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("API error: %v", e.Err)
	}
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.StatusText)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == 404
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
