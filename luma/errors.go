package luma

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError is returned when a request violates the API's parameter
// contract. It is always detected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteError is returned when the API answers with a non-success HTTP
// status, a malformed response, or reports a failed generation. StatusCode
// is zero when the failure was reported through the job status rather than
// the transport.
type RemoteError struct {
	StatusCode   int
	GenerationID string
	Message      string
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.GenerationID != "":
		return fmt.Sprintf("luma api error (status %d, generation %s): %s", e.StatusCode, e.GenerationID, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("luma api error (status %d): %s", e.StatusCode, e.Message)
	case e.GenerationID != "":
		return fmt.Sprintf("generation %s failed: %s", e.GenerationID, e.Message)
	default:
		return fmt.Sprintf("luma api error: %s", e.Message)
	}
}

// IsRemoteError checks if an error is a RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// TimeoutError is returned when the polling ceiling elapses before the
// generation reaches a terminal status. The remote job keeps running; the
// caller decides whether to poll again.
type TimeoutError struct {
	GenerationID string
	LastStatus   Status
	Ceiling      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation %s not finished after %s, last status %q", e.GenerationID, e.Ceiling, e.LastStatus)
}

// IsTimeoutError checks if an error is a TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
