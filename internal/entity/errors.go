package entity

import (
	"errors"
	"fmt"
)

// ErrTimeout matches, via errors.Is, any TransportError caused by a timeout.
var ErrTimeout = errors.New("request timed out")

// TransportError is a connection level failure: DNS, dial, reset or timeout.
type TransportError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("timeout fetching %s: %v", e.URL, e.Err)
	}

	return fmt.Sprintf("transport failure fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

// UpstreamStatusError is a non-2xx response from upstream.
type UpstreamStatusError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream responded %d for %s", e.StatusCode, e.URL)
}

// MalformedResponseError is a 2xx response without the expected content.
type MalformedResponseError struct {
	URL    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Reason)
}

// ParseError means a document had no recognizable top-level structure.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigurationError is an invalid input such as a bad handle or limit.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StatusCode returns the upstream status code carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *UpstreamStatusError

	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}
