package verification

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed identifying input. It is raised before
// any provider call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ServiceUnavailableError reports that the provider could not be reached or
// did not accept the request.
type ServiceUnavailableError struct {
	Op  string
	Err error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("verification service unavailable (%s): %v", e.Op, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// PollTimeoutError reports that the attempt budget ran out while the task was
// still in progress.
type PollTimeoutError struct {
	RequestID string
	Attempts  int
	LastErr   error
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("verification %s still in progress after %d attempts", e.RequestID, e.Attempts)
}

func (e *PollTimeoutError) Unwrap() error { return e.LastErr }

// VerificationFailedError reports that the provider rejected the subject.
type VerificationFailedError struct {
	RequestID string
	Reason    string
}

func (e *VerificationFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("verification %s failed", e.RequestID)
	}
	return fmt.Sprintf("verification %s failed: %s", e.RequestID, e.Reason)
}

// MalformedResponseError reports a provider payload that does not fit the
// expected schema.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return "malformed verification response: " + e.Detail
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsServiceUnavailable reports whether err is a *ServiceUnavailableError.
func IsServiceUnavailable(err error) bool {
	var target *ServiceUnavailableError
	return errors.As(err, &target)
}

// IsTransient reports whether a poll error should be retried within budget.
func IsTransient(err error) bool {
	var malformed *MalformedResponseError
	return errors.As(err, &malformed) || IsServiceUnavailable(err)
}
