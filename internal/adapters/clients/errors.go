// Package clients provides the instrumented HTTP client shared by the
// contact pipeline's downstream adapters.
package clients

import "errors"

var (
	// ErrCircuitOpen is returned without calling the downstream while its
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last transport error once every
	// attempt has failed with a retryable error.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
