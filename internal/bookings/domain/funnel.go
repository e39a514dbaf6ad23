package domain

// Funnel stages summarize where a booking or pre-booking request sits in the
// overall sales/ops pipeline. Stages are derived, never stored.
const (
	StageAwaitingCard      = "awaiting_card"
	StageReadyToSchedule   = "ready_to_schedule"
	StageScheduled         = "scheduled"
	StageServiceInProgress = "service_in_progress"
	StageServiceCompleted  = "service_completed"
	StagePaymentFailed     = "payment_failed"
	StagePaid              = "paid"
	StageCancelled         = "cancelled"

	StageIntake    = "intake"
	StageQuoted    = "quoted"
	StageConverted = "converted"
	StageLost      = "lost"
)

// RequestStatus is the quote status of a pre-booking intake request.
type RequestStatus string

const (
	RequestNew       RequestStatus = "new"
	RequestQuoted    RequestStatus = "quoted"
	RequestConverted RequestStatus = "converted"
	RequestRejected  RequestStatus = "rejected"
)

// FunnelStageForBooking maps a booking's operational status to its funnel
// stage. The retired legacy status is reported as a payment failure so old
// rows still land in a sensible bucket.
func FunnelStageForBooking(status Status) string {
	switch status {
	case StatusPendingCard:
		return StageAwaitingCard
	case StatusCardSaved:
		return StageReadyToSchedule
	case StatusScheduled:
		return StageScheduled
	case StatusInProgress:
		return StageServiceInProgress
	case StatusCompleted:
		return StageServiceCompleted
	case StatusPaymentFailed, StatusLegacyFailed:
		return StagePaymentFailed
	case StatusCharged:
		return StagePaid
	case StatusCancelled:
		return StageCancelled
	}
	return ""
}

// FunnelStageForRequest maps a pre-booking request's quote status to its
// funnel stage.
func FunnelStageForRequest(status RequestStatus) string {
	switch status {
	case RequestNew:
		return StageIntake
	case RequestQuoted:
		return StageQuoted
	case RequestConverted:
		return StageConverted
	case RequestRejected:
		return StageLost
	}
	return ""
}

// BookingStatusesForStage inverts FunnelStageForBooking so feed queries can
// push a stage filter down to a status predicate. Returns nil for stages
// that never apply to bookings.
func BookingStatusesForStage(stage string) []Status {
	switch stage {
	case StageAwaitingCard:
		return []Status{StatusPendingCard}
	case StageReadyToSchedule:
		return []Status{StatusCardSaved}
	case StageScheduled:
		return []Status{StatusScheduled}
	case StageServiceInProgress:
		return []Status{StatusInProgress}
	case StageServiceCompleted:
		return []Status{StatusCompleted}
	case StagePaymentFailed:
		return []Status{StatusPaymentFailed, StatusLegacyFailed}
	case StagePaid:
		return []Status{StatusCharged}
	case StageCancelled:
		return []Status{StatusCancelled}
	}
	return nil
}

// RequestStatusesForStage inverts FunnelStageForRequest. Returns nil for
// stages that never apply to pre-booking requests.
func RequestStatusesForStage(stage string) []RequestStatus {
	switch stage {
	case StageIntake:
		return []RequestStatus{RequestNew}
	case StageQuoted:
		return []RequestStatus{RequestQuoted}
	case StageConverted:
		return []RequestStatus{RequestConverted}
	case StageLost:
		return []RequestStatus{RequestRejected}
	}
	return nil
}
