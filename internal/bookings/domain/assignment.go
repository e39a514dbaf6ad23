package domain

// AssignmentStatus is the sub-state of a single crew assignment.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentDeclined   AssignmentStatus = "declined"
	AssignmentConfirmed  AssignmentStatus = "confirmed"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

// Assignment roles on a booking.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// assignmentTransitions is the adjacency set for the assignment sub-state
// machine. Declines are only possible from pending; once accepted, the only
// way out besides the normal path is cancellation, and cancellation is only
// possible before work starts.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:    {AssignmentAccepted, AssignmentDeclined, AssignmentCancelled},
	AssignmentAccepted:   {AssignmentConfirmed, AssignmentCancelled},
	AssignmentConfirmed:  {AssignmentInProgress, AssignmentCancelled},
	AssignmentInProgress: {AssignmentCompleted},
}

// CanTransitionAssignment reports whether from -> to is a legal assignment edge.
func CanTransitionAssignment(from, to AssignmentStatus) bool {
	for _, next := range assignmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AssignmentStarted reports whether the assignment has begun or finished work.
func AssignmentStarted(status AssignmentStatus) bool {
	return status == AssignmentInProgress || status == AssignmentCompleted
}
