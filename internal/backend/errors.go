package backend

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound indicates the device token is not registered on the
// backend yet. Distinct from transport failure so callers can treat it as
// "nothing to do yet" instead of retrying aggressively.
var ErrDeviceNotFound = errors.New("device not registered")

// TransportError represents a failed exchange with the backend: network
// unreachable, timeout, or a non-success HTTP status.
type TransportError struct {
	// Op names the API call that failed.
	Op string

	// Status is the HTTP status code, or 0 when the request never
	// completed.
	Status int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport returns true if the error is a transport failure.
// Uses errors.As to handle wrapped errors.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
