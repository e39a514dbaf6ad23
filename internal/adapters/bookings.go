// Package adapters contains anti-corruption adapters between bounded
// contexts. Each adapter implements an interface owned by the consuming
// module so modules never import each other's services directly.
package adapters

import (
	"context"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/service"

	"github.com/google/uuid"
)

const paymentWebhookSource = "payment_webhook"

// BookingLifecycleAdapter implements the payments module's BookingLifecycle
// over the bookings service.
type BookingLifecycleAdapter struct {
	svc *service.Service
}

// NewBookingLifecycleAdapter creates the payments -> bookings adapter.
func NewBookingLifecycleAdapter(svc *service.Service) *BookingLifecycleAdapter {
	return &BookingLifecycleAdapter{svc: svc}
}

func (a *BookingLifecycleAdapter) ConfirmCard(ctx context.Context, bookingID uuid.UUID) error {
	_, err := a.svc.ConfirmCard(ctx, bookingID, paymentWebhookSource, nil)
	return err
}

func (a *BookingLifecycleAdapter) MarkCharged(ctx context.Context, bookingID uuid.UUID) error {
	_, err := a.svc.Transition(ctx, bookingID, service.TransitionParams{
		ToStatus: domain.StatusCharged,
		Source:   paymentWebhookSource,
	})
	return err
}

func (a *BookingLifecycleAdapter) MarkPaymentFailed(ctx context.Context, bookingID uuid.UUID, failureCode *string) error {
	var metadata map[string]any
	if failureCode != nil {
		metadata = map[string]any{"failureCode": *failureCode}
	}
	_, err := a.svc.Transition(ctx, bookingID, service.TransitionParams{
		ToStatus: domain.StatusPaymentFailed,
		Source:   paymentWebhookSource,
		Metadata: metadata,
	})
	return err
}

// IntakeBookingCreator implements the intake module's BookingCreator over the
// bookings service.
type IntakeBookingCreator struct {
	svc *service.Service
}

// NewIntakeBookingCreator creates the intake -> bookings adapter.
func NewIntakeBookingCreator(svc *service.Service) *IntakeBookingCreator {
	return &IntakeBookingCreator{svc: svc}
}

func (a *IntakeBookingCreator) CreateFromIntake(ctx context.Context, customerID uuid.UUID, amountCents *int64, source string) (uuid.UUID, error) {
	booking, err := a.svc.CreateBooking(ctx, service.CreateBookingParams{
		CustomerID:  &customerID,
		AmountCents: amountCents,
		Source:      source,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return booking.ID, nil
}
