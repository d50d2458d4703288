package ai

import (
	"fmt"
)

// UpstreamError indicates the provider was unreachable or replied with a
// non-success status. Never retried automatically.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NoContentError indicates the provider replied successfully but with no
// textual content to parse.
type NoContentError struct{}

func (e *NoContentError) Error() string { return "no content in model response" }

// ParseError indicates the returned content does not satisfy the
// required JSON contract. Content holds the raw offending text for
// server-side diagnosis; it is logged, never shown to the end user.
type ParseError struct {
	Err     error
	Content string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model reply failed JSON contract: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
