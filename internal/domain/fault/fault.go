// Package fault defines the typed error taxonomy shared by all services.
// Callers match with errors.As; the HTTP layer maps each type to a status
// code in exactly one place.
package fault

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the referenced entity does not exist (or is
// soft-deleted).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// StaleWriteError indicates an optimistic-lock failure: the caller's
// expected version no longer matches the stored row. The caller must
// re-read and retry or abort.
type StaleWriteError struct {
	Entity          string
	ID              string
	ExpectedVersion int
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("stale write on %s %s: expected version %d", e.Entity, e.ID, e.ExpectedVersion)
}

// InvalidTransitionError indicates the target status is not reachable
// from the current status.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition %s -> %s (%s)", e.Entity, e.From, e.To, e.ID)
}

// AlreadyAssignedError indicates a property already has an active
// (REQUESTED or ACCEPTED) agent assignment.
type AlreadyAssignedError struct {
	PropertyID string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("property %s already has an active assignment", e.PropertyID)
}

// AlreadyDisbursedError indicates a commission record was already paid
// out; a retried disbursement must not double-pay.
type AlreadyDisbursedError struct {
	CommissionRecordID string
}

func (e *AlreadyDisbursedError) Error() string {
	return fmt.Sprintf("commission record %s already disbursed", e.CommissionRecordID)
}

// ExpiredError indicates the entity passed its deadline (offer past
// expires_at, OTP past its TTL).
type ExpiredError struct {
	Entity string
	ID     string
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("%s expired: %s", e.Entity, e.ID)
}

// UnauthorizedError indicates the actor lacks the role or ownership
// required for the action. Denied attempts are still audited.
type UnauthorizedError struct {
	Actor  string
	Action string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s", e.Actor, e.Action)
}

// ValidationError indicates a request was rejected before any state
// mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError indicates a uniqueness invariant rejected the write
// (single pending offer, single open visit, single active verification).
type ConflictError struct {
	Entity     string
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflicts with constraint %s", e.Entity, e.Constraint)
}

// IsConflict reports whether err belongs to the recoverable conflict
// class (stale version, uniqueness violation, duplicate disbursement).
func IsConflict(err error) bool {
	var stale *StaleWriteError
	var assigned *AlreadyAssignedError
	var disbursed *AlreadyDisbursedError
	var conflict *ConflictError
	return errors.As(err, &stale) ||
		errors.As(err, &assigned) ||
		errors.As(err, &disbursed) ||
		errors.As(err, &conflict)
}

func Validationf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
