package openrouter

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationUnavailable matches any *UnavailableError via errors.Is.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrMalformedResponse is returned when a 2xx body lacks choices[0].
	ErrMalformedResponse = errors.New("malformed provider response")
)

// StatusError is a non-2xx reply from the provider for one model.
type StatusError struct {
	Model      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d for %s: %s", e.StatusCode, e.Model, e.Body)
}

// UnavailableError is returned when every candidate in a chain failed.
// Last is the error from the final attempt.
type UnavailableError struct {
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	if e.Last == nil {
		return "generation unavailable: no candidate models"
	}
	return fmt.Sprintf("generation unavailable after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }

func (e *UnavailableError) Is(target error) bool { return target == ErrGenerationUnavailable }
