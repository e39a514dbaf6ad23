// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"cleanops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Booking Domain Events
// =============================================================================

// BookingCreated is published when a new booking is created.
type BookingCreated struct {
	BaseEvent
	BookingID  uuid.UUID  `json:"bookingId"`
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
	Source     string     `json:"source,omitempty"`
}

func (e BookingCreated) EventName() string { return "bookings.booking.created" }

// BookingStatusChanged is published after every accepted status transition,
// normal or override.
type BookingStatusChanged struct {
	BaseEvent
	BookingID   uuid.UUID  `json:"bookingId"`
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	FromStatus  string     `json:"fromStatus"`
	ToStatus    string     `json:"toStatus"`
	Source      string     `json:"source"`
	Override    bool       `json:"override,omitempty"`
	ServiceDate *time.Time `json:"serviceDate,omitempty"`
}

func (e BookingStatusChanged) EventName() string { return "bookings.booking.status_changed" }

// BookingRescheduled is published after a booking's schedule fields change.
type BookingRescheduled struct {
	BaseEvent
	BookingID       uuid.UUID  `json:"bookingId"`
	CustomerID      *uuid.UUID `json:"customerId,omitempty"`
	FromServiceDate *time.Time `json:"fromServiceDate,omitempty"`
	ToServiceDate   time.Time  `json:"toServiceDate"`
}

func (e BookingRescheduled) EventName() string { return "bookings.booking.rescheduled" }

// ServiceReminderDue is published by the worker when a scheduled booking's
// reminder task fires.
type ServiceReminderDue struct {
	BaseEvent
	BookingID   uuid.UUID  `json:"bookingId"`
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	ServiceDate *time.Time `json:"serviceDate,omitempty"`
}

func (e ServiceReminderDue) EventName() string { return "bookings.booking.reminder_due" }

// =============================================================================
// Intake Domain Events
// =============================================================================

// IntakeRequestCreated is published when a pre-booking request arrives.
type IntakeRequestCreated struct {
	BaseEvent
	RequestID  uuid.UUID  `json:"requestId"`
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
	Source     string     `json:"source,omitempty"`
}

func (e IntakeRequestCreated) EventName() string { return "intake.request.created" }
