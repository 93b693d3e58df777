package upstream

import "errors"

var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrMalformedResponse is returned when a body is not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed response")
)
