// Package transport defines request and response DTOs for the bookings API.
package transport

import (
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/repository"

	"github.com/google/uuid"
)

// CreateBookingRequest creates a new booking in pending_card.
type CreateBookingRequest struct {
	CustomerID         *uuid.UUID `json:"customerId"`
	ServiceDate        *time.Time `json:"serviceDate"`
	ServiceWindowStart *string    `json:"serviceWindowStart" validate:"omitempty,max=16"`
	ServiceWindowEnd   *string    `json:"serviceWindowEnd" validate:"omitempty,max=16"`
	AmountCents        *int64     `json:"amountCents" validate:"omitempty,gte=0"`
	Source             string     `json:"source" validate:"omitempty,max=64"`
}

// TransitionRequest requests a normal status change.
type TransitionRequest struct {
	Status   string         `json:"status" validate:"required,max=32"`
	Source   string         `json:"source" validate:"omitempty,max=64"`
	Reason   *string        `json:"reason" validate:"omitempty,max=1000"`
	Metadata map[string]any `json:"metadata"`
}

// OverrideTransitionRequest requests an audited bypass of the transition
// table. Reason is mandatory here, unlike the normal path.
type OverrideTransitionRequest struct {
	Status   string         `json:"status" validate:"required,max=32"`
	Source   string         `json:"source" validate:"required,max=64"`
	Reason   string         `json:"reason" validate:"required,max=1000"`
	Metadata map[string]any `json:"metadata"`
}

// RescheduleRequest replaces a booking's service date and window.
type RescheduleRequest struct {
	ServiceDate        time.Time `json:"serviceDate" validate:"required"`
	ServiceWindowStart *string   `json:"serviceWindowStart" validate:"omitempty,max=16"`
	ServiceWindowEnd   *string   `json:"serviceWindowEnd" validate:"omitempty,max=16"`
	Reason             *string   `json:"reason" validate:"omitempty,max=1000"`
}

// CancelRequest cancels a booking.
type CancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// CreateAssignmentRequest adds crew to a booking.
type CreateAssignmentRequest struct {
	CleanerID *uuid.UUID `json:"cleanerId"`
	CrewID    *uuid.UUID `json:"crewId"`
	Role      string     `json:"role" validate:"omitempty,oneof=primary secondary"`
}

// CreateChecklistItemRequest attaches a task to an assignment.
type CreateChecklistItemRequest struct {
	Label string `json:"label" validate:"required,max=500"`
}

// SetChecklistItemRequest toggles a checklist item.
type SetChecklistItemRequest struct {
	IsCompleted *bool `json:"isCompleted" validate:"required"`
}

// BackfillRequest runs the legacy failed-status backfill.
type BackfillRequest struct {
	DryRun bool `json:"dryRun"`
}

// BookingResponse is the API shape of a booking.
type BookingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	CustomerID         *uuid.UUID `json:"customerId,omitempty"`
	Status             string     `json:"status"`
	Stage              string     `json:"stage"`
	ServiceDate        *time.Time `json:"serviceDate,omitempty"`
	ServiceWindowStart *string    `json:"serviceWindowStart,omitempty"`
	ServiceWindowEnd   *string    `json:"serviceWindowEnd,omitempty"`
	AmountCents        *int64     `json:"amountCents,omitempty"`
	Source             *string    `json:"source,omitempty"`
	AllowedNext        []string   `json:"allowedNext"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ToBookingResponse maps a repository booking to its API shape.
func ToBookingResponse(b repository.Booking) BookingResponse {
	status := domain.Status(b.Status)
	next := domain.AllowedNext(status)
	allowed := make([]string, len(next))
	for i, s := range next {
		allowed[i] = string(s)
	}
	return BookingResponse{
		ID:                 b.ID,
		CustomerID:         b.CustomerID,
		Status:             b.Status,
		Stage:              domain.FunnelStageForBooking(status),
		ServiceDate:        b.ServiceDate,
		ServiceWindowStart: b.ServiceWindowStart,
		ServiceWindowEnd:   b.ServiceWindowEnd,
		AmountCents:        b.AmountCents,
		Source:             b.Source,
		AllowedNext:        allowed,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// AssignmentResponse is the API shape of an assignment.
type AssignmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	BookingID    uuid.UUID  `json:"bookingId"`
	CleanerID    *uuid.UUID `json:"cleanerId,omitempty"`
	CrewID       *uuid.UUID `json:"crewId,omitempty"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	AssignedAt   time.Time  `json:"assignedAt"`
	ConfirmedAt  *time.Time `json:"confirmedAt,omitempty"`
	ClockedInAt  *time.Time `json:"clockedInAt,omitempty"`
	ClockedOutAt *time.Time `json:"clockedOutAt,omitempty"`
}

// ToAssignmentResponse maps a repository assignment to its API shape.
func ToAssignmentResponse(a repository.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           a.ID,
		BookingID:    a.BookingID,
		CleanerID:    a.CleanerID,
		CrewID:       a.CrewID,
		Role:         a.Role,
		Status:       a.Status,
		AssignedAt:   a.AssignedAt,
		ConfirmedAt:  a.ConfirmedAt,
		ClockedInAt:  a.ClockedInAt,
		ClockedOutAt: a.ClockedOutAt,
	}
}

// ChecklistItemResponse is the API shape of a checklist item.
type ChecklistItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Label       string    `json:"label"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToChecklistItemResponse maps a repository checklist item to its API shape.
func ToChecklistItemResponse(item repository.ChecklistItem) ChecklistItemResponse {
	return ChecklistItemResponse{
		ID:          item.ID,
		Label:       item.Label,
		IsCompleted: item.IsCompleted,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// TimelineEventResponse is the API shape of one lifecycle event.
type TimelineEventResponse struct {
	ID              uuid.UUID      `json:"id"`
	EventType       string         `json:"eventType"`
	FromStatus      *string        `json:"fromStatus,omitempty"`
	ToStatus        *string        `json:"toStatus,omitempty"`
	Source          string         `json:"source"`
	Reason          *string        `json:"reason,omitempty"`
	ActorUserID     *uuid.UUID     `json:"actorUserId,omitempty"`
	ActorName       *string        `json:"actorName,omitempty"`
	FromServiceDate *time.Time     `json:"fromServiceDate,omitempty"`
	ToServiceDate   *time.Time     `json:"toServiceDate,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// TimelineResponse is one page of a booking's timeline.
type TimelineResponse struct {
	Items      []TimelineEventResponse `json:"items"`
	NextCursor string                  `json:"nextCursor,omitempty"`
}

// ToTimelineEventResponse maps a repository event to its API shape.
func ToTimelineEventResponse(e repository.BookingEvent) TimelineEventResponse {
	return TimelineEventResponse{
		ID:              e.ID,
		EventType:       e.EventType,
		FromStatus:      e.FromStatus,
		ToStatus:        e.ToStatus,
		Source:          e.Source,
		Reason:          e.Reason,
		ActorUserID:     e.ActorUserID,
		ActorName:       e.ActorName,
		FromServiceDate: e.FromServiceDate,
		ToServiceDate:   e.ToServiceDate,
		Metadata:        e.Metadata,
		CreatedAt:       e.CreatedAt,
	}
}
