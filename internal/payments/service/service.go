// Package service processes payment provider events and drives the matching
// booking lifecycle transitions.
package service

import (
	"context"
	"fmt"

	"cleanops_backend/internal/payments/repository"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
)

// Payment provider event types accepted by the webhook.
const (
	EventCardSaved       = "card_saved"
	EventChargeSucceeded = "charge_succeeded"
	EventChargeFailed    = "charge_failed"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreatePayment(ctx context.Context, params repository.CreatePaymentParams) (repository.Payment, error)
	ListPaymentsByBooking(ctx context.Context, bookingID uuid.UUID) ([]repository.Payment, error)
}

// BookingLifecycle is the slice of the bookings module payments drives.
type BookingLifecycle interface {
	ConfirmCard(ctx context.Context, bookingID uuid.UUID) error
	MarkCharged(ctx context.Context, bookingID uuid.UUID) error
	MarkPaymentFailed(ctx context.Context, bookingID uuid.UUID, failureCode *string) error
}

// Service records payment events and applies their booking transitions.
type Service struct {
	store    Store
	bookings BookingLifecycle
	log      *logger.Logger
}

// New creates a payments service.
func New(store Store, bookings BookingLifecycle, log *logger.Logger) *Service {
	return &Service{store: store, bookings: bookings, log: log}
}

// ProviderEvent is one event from the payment provider.
type ProviderEvent struct {
	Type        string
	BookingID   uuid.UUID
	AmountCents *int64
	ExternalRef *string
	FailureCode *string
}

// HandleProviderEvent records charge outcomes in the ledger and moves the
// booking accordingly. The ledger insert happens before the transition so a
// failed charge leaves evidence even when the booking is in an unexpected
// state.
func (s *Service) HandleProviderEvent(ctx context.Context, event ProviderEvent) error {
	switch event.Type {
	case EventCardSaved:
		return s.bookings.ConfirmCard(ctx, event.BookingID)

	case EventChargeSucceeded:
		if _, err := s.store.CreatePayment(ctx, repository.CreatePaymentParams{
			BookingID:   event.BookingID,
			Status:      repository.StatusSucceeded,
			AmountCents: event.AmountCents,
			ExternalRef: event.ExternalRef,
		}); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		return s.bookings.MarkCharged(ctx, event.BookingID)

	case EventChargeFailed:
		if _, err := s.store.CreatePayment(ctx, repository.CreatePaymentParams{
			BookingID:   event.BookingID,
			Status:      repository.StatusFailed,
			AmountCents: event.AmountCents,
			ExternalRef: event.ExternalRef,
			FailureCode: event.FailureCode,
		}); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		return s.bookings.MarkPaymentFailed(ctx, event.BookingID, event.FailureCode)
	}
	return apperr.Validation(fmt.Sprintf("unknown payment event type %q", event.Type))
}

// ListByBooking returns a booking's payment history.
func (s *Service) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]repository.Payment, error) {
	return s.store.ListPaymentsByBooking(ctx, bookingID)
}
