package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneration is the root of every failed generation call.
	ErrGeneration = errors.New("generation failed")

	// ErrTimeout indicates the request exceeded the configured task timeout.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrGeneration)

	// ErrCanceled indicates the caller gave up on the request.
	ErrCanceled = fmt.Errorf("%w: request canceled", ErrGeneration)

	// ErrUnavailable indicates the provider could not be reached or
	// rejected our credentials.
	ErrUnavailable = fmt.Errorf("%w: provider unavailable", ErrGeneration)

	// ErrInvalidOutput indicates the response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = fmt.Errorf("%w: invalid output format", ErrGeneration)

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = fmt.Errorf("%w: retry attempts exhausted", ErrGeneration)
)

// statusError is a non-2xx reply from a provider HTTP API.
type statusError struct {
	provider Provider
	code     int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.provider, e.code, e.body)
}

// retryable reports whether another attempt could plausibly succeed.
func (e *statusError) retryable() bool {
	return e.code == 429 || e.code >= 500
}

func (e *statusError) unauthorized() bool {
	return e.code == 401 || e.code == 403
}
