// Package domain holds the inquiry model and the failures of the contact
// pipeline. Errors here say what went wrong for the submitter or the system;
// adapters decide how that maps to a status code.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every typed error below unwraps to exactly one.
var (
	// ErrValidation marks a submission rejected before any external write,
	// including a failed bot check.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence marks a submission no sink accepted.
	ErrPersistence = errors.New("persistence failed")

	// ErrNotification marks a notification that could not be sent.
	ErrNotification = errors.New("notification failed")

	// ErrUnavailable marks a collaborator that could not be reached or
	// refused to serve for now.
	ErrUnavailable = errors.New("unavailable")
)

// chain puts the sentinel ahead of the cause for errors.Is and errors.As.
func chain(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}

	return []error{sentinel, cause}
}

// ValidationError is a problem with the submitted form. An empty Field
// means the message covers the form as a whole.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError reports message against field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue also records the rejected value for logs.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// VerificationError means the submitter was not confirmed as human. It
// counts as a validation failure: the caller may retry, nothing is broken.
type VerificationError struct {
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Cause == nil {
		return "verification failed: " + e.Reason
	}

	return fmt.Sprintf("verification failed: %s: %v", e.Reason, e.Cause)
}

// Unwrap returns ErrValidation and the cause, if any.
func (e *VerificationError) Unwrap() []error { return chain(ErrValidation, e.Cause) }

// NewVerificationError reports a failed bot check. cause may be nil when
// the verifier answered but the submitter did not pass.
func NewVerificationError(reason string, cause error) error {
	return &VerificationError{Reason: reason, Cause: cause}
}

// PersistenceError names the sink whose write failed.
type PersistenceError struct {
	Sink  string
	Cause error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("sink %q write failed", e.Sink)
	}

	return fmt.Sprintf("sink %q write failed: %v", e.Sink, e.Cause)
}

// Unwrap returns ErrPersistence and the cause, if any.
func (e *PersistenceError) Unwrap() []error { return chain(ErrPersistence, e.Cause) }

// NewPersistenceError reports a failed write to sink.
func NewPersistenceError(sink string, cause error) error {
	return &PersistenceError{Sink: sink, Cause: cause}
}

// NotificationError names the channel that could not deliver.
type NotificationError struct {
	Channel string
	Cause   error
}

// Error implements the error interface.
func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Cause)
}

// Unwrap returns ErrNotification and the cause, if any.
func (e *NotificationError) Unwrap() []error { return chain(ErrNotification, e.Cause) }

// NewNotificationError reports a delivery failure on channel.
func NewNotificationError(channel string, cause error) error {
	return &NotificationError{Channel: channel, Cause: cause}
}

// UnavailableError names the collaborator that could not serve.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("service %q unavailable", e.Service)
	}

	return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
}

// Unwrap returns ErrUnavailable.
func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError reports that service cannot serve right now.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsValidation reports whether err is a rejected submission, bot checks included.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsVerification is narrower than IsValidation: only failed bot checks.
func IsVerification(err error) bool {
	var verr *VerificationError
	return errors.As(err, &verr)
}

// IsPersistence reports whether err is a failed sink write.
func IsPersistence(err error) bool { return errors.Is(err, ErrPersistence) }

// IsNotification reports whether err is an undelivered notification.
func IsNotification(err error) bool { return errors.Is(err, ErrNotification) }

// IsUnavailable reports whether err is an unreachable collaborator.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
