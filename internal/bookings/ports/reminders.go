// Package ports defines the interfaces the bookings module needs from other
// modules. Adapters are wired at the composition root.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReminderScheduler enqueues a service-day reminder for a booking.
// Implemented by the asynq scheduler client; nil when redis is not configured.
type ReminderScheduler interface {
	ScheduleServiceReminder(ctx context.Context, bookingID uuid.UUID, runAt time.Time) error
}

// PreBookingFeed supplies pre-booking intake rows for the unified funnel
// feed. Implemented by the intake module.
type PreBookingFeed interface {
	ListFeedRequests(ctx context.Context, q PreBookingFeedQuery) ([]PreBookingRow, error)
}

// PreBookingFeedQuery mirrors the keyset paging contract of the booking feed.
type PreBookingFeedQuery struct {
	Limit           int
	BeforeCreatedAt *time.Time
	BeforeID        *uuid.UUID
	Statuses        []string
	Search          string
}

// PreBookingRow is one intake request as seen by the unified feed.
type PreBookingRow struct {
	ID            uuid.UUID
	Status        string
	CustomerID    *uuid.UUID
	CustomerName  *string
	CustomerEmail *string
	QuoteCents    *int64
	CreatedAt     time.Time
}
