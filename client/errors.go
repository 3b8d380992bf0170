package client

import (
	"fmt"
)

// TransportError means the request could not be sent, or the connection failed or timed out
// before the call was finished.
type TransportError struct {
	URL     string
	Partial string
	Err     error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("unexpected error during request to %s: %s", e.URL, e.Err)
	if e.Partial != "" {
		msg += fmt.Sprintf("; response so far: %q", e.Partial)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AssertionError means the server responded, but not with what was expected.
type AssertionError struct {
	URL     string
	Message string
	Status  int
	Body    string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s (request to %s returned status %d, body %q)", e.Message, e.URL, e.Status, e.Body)
}

// UnmetExpectationError means a subscriber stream ended before the caller said it had seen
// what it was waiting for.
type UnmetExpectationError struct {
	URL      string
	Chunks   int
	Received string
}

func (e *UnmetExpectationError) Error() string {
	return fmt.Sprintf("stream from %s ended after %d chunk(s) without the expected content; received %q",
		e.URL, e.Chunks, e.Received)
}
