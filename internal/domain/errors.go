package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConcurrencyConflict = errors.New("concurrent update won the race")
)

// ValidationError carries field-level detail for malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidStateTransitionError is returned when a booking lifecycle event is
// attempted from a state that does not permit it.
type InvalidStateTransitionError struct {
	Event string
	From  BookingStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking in status %q", e.Event, e.From)
}

// InvalidWithdrawalStateError identifies the current combined escrow state
// when a withdrawal operation is attempted outside its guard.
type InvalidWithdrawalStateError struct {
	Event            string
	EscrowStatus     EscrowStatus
	WithdrawalStatus WithdrawalStatus
}

func (e *InvalidWithdrawalStateError) Error() string {
	return fmt.Sprintf("cannot %s withdrawal: escrow_status=%q withdrawal_status=%q",
		e.Event, e.EscrowStatus, e.WithdrawalStatus)
}

// PaymentProcessorError wraps a failed or timed-out call to the external
// card processor so callers can distinguish it from local failures.
type PaymentProcessorError struct {
	Op  string
	Err error
}

func (e *PaymentProcessorError) Error() string {
	return fmt.Sprintf("payment processor %s failed: %v", e.Op, e.Err)
}

func (e *PaymentProcessorError) Unwrap() error {
	return e.Err
}
