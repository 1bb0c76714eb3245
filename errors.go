package vitalia

import (
	"errors"
	"fmt"
)

// ErrEmptyPantry is returned when a plan is requested with no ingredients.
// It is raised before any network call.
var ErrEmptyPantry = errors.New("pantry is empty")

// RequestError reports a completion request that failed on every attempt.
// Err is the failure of the last attempt.
type RequestError struct {
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ValidationError reports a structurally malformed response. It is never retried.
type ValidationError struct {
	Operation Operation
	Reason    string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s response: %s: %v", e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s response: %s", e.Operation, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }
