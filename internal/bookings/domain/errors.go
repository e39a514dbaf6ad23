package domain

import (
	"fmt"

	"cleanops_backend/platform/apperr"
)

// ErrInvalidTransition is returned by the guard when the requested edge is
// not in the transition table.
func ErrInvalidTransition(from, to Status) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("transition %s -> %s is not allowed", from, to)).
		WithDetails(map[string]string{"current": string(from), "requested": string(to)})
}

// ErrInvalidAssignmentTransition is returned for illegal assignment sub-state
// edges.
func ErrInvalidAssignmentTransition(from, to AssignmentStatus) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("transition %s -> %s is not allowed", from, to)).
		WithDetails(map[string]string{"current": string(from), "requested": string(to)})
}

// ErrMissingReason is returned when an override transition is requested
// without a reason.
func ErrMissingReason() *apperr.Error {
	return apperr.Validation("override transition requires a reason")
}

// ErrOverrideSourceNotAllowed is returned when an override transition is
// requested from a source outside the allow-list.
func ErrOverrideSourceNotAllowed(source string) *apperr.Error {
	return apperr.Forbidden(fmt.Sprintf("source %q may not perform override transitions", source))
}

// ErrCancellationNotAllowed is returned when cancellation is attempted from
// an ineligible status.
func ErrCancellationNotAllowed(current Status) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("cancellation is not allowed (current: %s)", current)).
		WithDetails(map[string]string{"current": string(current)})
}

// ErrChecklistIncomplete is returned when clock-out is attempted while
// checklist items remain open.
func ErrChecklistIncomplete() *apperr.Error {
	return apperr.Conflict("Cannot clock out before checklist is complete")
}

// ErrStaleStatus is returned when a transition's status precondition no
// longer holds, meaning a concurrent writer got there first.
func ErrStaleStatus(expected Status) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("booking status changed concurrently (expected %s)", expected))
}
