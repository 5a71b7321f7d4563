package upstream

import "fmt"

// TransportError is a network failure before any response arrived.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream transport: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// HTTPError is a non-2xx response, carrying status code and reason phrase.
type HTTPError struct {
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream status %d %s", e.Status, e.Reason)
}

// ParseError is a malformed response body.
type ParseError struct {
	Endpoint string
	Cause    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Endpoint, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
