// Package domain provides core business rules for the bookings bounded context.
package domain

// Status is the operational status of a booking.
type Status string

const (
	StatusPendingCard   Status = "pending_card"
	StatusCardSaved     Status = "card_saved"
	StatusScheduled     Status = "scheduled"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusPaymentFailed Status = "payment_failed"
	StatusCharged       Status = "charged"
	StatusCancelled     Status = "cancelled"

	// StatusLegacyFailed is a retired status that must never be written going
	// forward. Rows carrying it are reclassified by the legacy backfill.
	StatusLegacyFailed Status = "failed"
)

// transitions is the fixed adjacency set of legal status edges. The guard is
// a single map lookup; keeping the table as data makes the invariant
// auditable in isolation.
var transitions = map[Status][]Status{
	StatusPendingCard:   {StatusCardSaved, StatusCancelled},
	StatusCardSaved:     {StatusScheduled, StatusCancelled},
	StatusScheduled:     {StatusInProgress, StatusCardSaved, StatusCancelled},
	StatusInProgress:    {StatusCompleted},
	StatusCompleted:     {StatusCharged, StatusPaymentFailed},
	StatusPaymentFailed: {StatusCharged},
	StatusLegacyFailed:  {StatusPaymentFailed},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the legal destination statuses from the given status.
func AllowedNext(from Status) []Status {
	return append([]Status(nil), transitions[from]...)
}

// spendStatuses are the statuses whose amount counts toward a customer's
// total spend.
var spendStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusCharged:   true,
}

// CountsTowardSpend reports whether a booking in this status contributes its
// amount to customer totals.
func CountsTowardSpend(status Status) bool {
	return spendStatuses[status]
}

// cancellableStatuses are the statuses from which a booking may be cancelled.
var cancellableStatuses = map[Status]bool{
	StatusPendingCard: true,
	StatusCardSaved:   true,
	StatusScheduled:   true,
}

// CanCancel reports whether a booking in this status may be cancelled.
func CanCancel(status Status) bool {
	return cancellableStatuses[status]
}

// IsKnown reports whether the status is a live (non-retired) booking status.
func IsKnown(status Status) bool {
	switch status {
	case StatusPendingCard, StatusCardSaved, StatusScheduled, StatusInProgress,
		StatusCompleted, StatusPaymentFailed, StatusCharged, StatusCancelled:
		return true
	}
	return false
}

// OverrideSources is the fixed allow-list of callers permitted to use the
// audited override path that bypasses the transition table.
var OverrideSources = map[string]bool{
	"admin_override": true,
	"support_tools":  true,
}

// Lifecycle event types recorded in the booking event log.
const (
	EventCreated            = "created"
	EventTransition         = "transition"
	EventOverrideTransition = "override_transition"
	EventRescheduled        = "rescheduled"
)
