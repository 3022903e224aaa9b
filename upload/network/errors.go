package network

import "fmt"

// TransportError is a network-level failure: the request never completed, the
// server answered with a non-2xx status, or the body carried an explicit
// rejection.
type TransportError struct {
	// StatusCode is zero when the request never got a response.
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// ProtocolError is a malformed or incomplete success response: the HTTP layer
// reported success but the payload is not usable.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}
