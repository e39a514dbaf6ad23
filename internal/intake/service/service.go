// Package service implements the pre-booking intake flow: capturing requests,
// quoting them and converting accepted quotes into bookings.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cleanops_backend/internal/events"
	"cleanops_backend/internal/intake/repository"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/logger"
	"cleanops_backend/platform/phone"

	"github.com/google/uuid"
)

// Quote statuses of an intake request.
const (
	StatusNew       = "new"
	StatusQuoted    = "quoted"
	StatusConverted = "converted"
	StatusRejected  = "rejected"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateRequest(ctx context.Context, params repository.CreateRequestParams) (repository.Request, error)
	GetRequest(ctx context.Context, id uuid.UUID) (repository.Request, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, quoteCents *int64) (repository.Request, error)
	LinkCustomer(ctx context.Context, id, customerID uuid.UUID) (repository.Request, error)
	ListFeedRequests(ctx context.Context, q repository.FeedQuery) ([]repository.Request, error)
}

// CustomerUpserter resolves contact details to a customer record. Implemented
// by the customers module.
type CustomerUpserter interface {
	UpsertByContact(ctx context.Context, name, email, phone *string) (uuid.UUID, error)
}

// BookingCreator opens a booking for a converted request. Implemented by an
// adapter over the bookings module.
type BookingCreator interface {
	CreateFromIntake(ctx context.Context, customerID uuid.UUID, amountCents *int64, source string) (uuid.UUID, error)
}

// Service orchestrates the intake flow.
type Service struct {
	store     Store
	customers CustomerUpserter
	bookings  BookingCreator
	bus       events.Bus
	log       *logger.Logger
}

// New creates an intake service.
func New(store Store, customers CustomerUpserter, bookings BookingCreator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, customers: customers, bookings: bookings, bus: bus, log: log}
}

// SubmitRequestParams are the caller-supplied fields of a new request.
type SubmitRequestParams struct {
	Name        *string
	Email       *string
	Phone       *string
	Address     *string
	ServiceType *string
	Notes       *string
	Source      string
}

// SubmitRequest captures a pre-booking request. When contact details are
// present the customer record is upserted so the request is linked from the
// start; a failed upsert does not lose the request.
func (s *Service) SubmitRequest(ctx context.Context, params SubmitRequestParams) (repository.Request, error) {
	if isBlank(params.Email) && isBlank(params.Phone) {
		return repository.Request{}, apperr.Validation("email or phone is required")
	}

	if params.Phone != nil && *params.Phone != "" {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}

	var customerID *uuid.UUID
	if s.customers != nil {
		id, err := s.customers.UpsertByContact(ctx, params.Name, params.Email, params.Phone)
		if err != nil {
			s.log.Warn("customer upsert failed for intake request", "error", err)
		} else {
			customerID = &id
		}
	}

	var source *string
	if params.Source != "" {
		source = &params.Source
	}
	req, err := s.store.CreateRequest(ctx, repository.CreateRequestParams{
		CustomerID:  customerID,
		Name:        params.Name,
		Email:       params.Email,
		Phone:       params.Phone,
		Address:     params.Address,
		ServiceType: params.ServiceType,
		Notes:       params.Notes,
		Status:      StatusNew,
		Source:      source,
	})
	if err != nil {
		return repository.Request{}, fmt.Errorf("create intake request: %w", err)
	}

	s.bus.Publish(ctx, events.IntakeRequestCreated{
		BaseEvent:  events.NewBaseEvent(),
		RequestID:  req.ID,
		CustomerID: customerID,
		Source:     params.Source,
	})
	return req, nil
}

// GetRequest loads one intake request.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (repository.Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return repository.Request{}, mapStoreErr(err)
	}
	return req, nil
}

// Quote attaches a price to a new request and moves it to quoted.
func (s *Service) Quote(ctx context.Context, id uuid.UUID, quoteCents int64) (repository.Request, error) {
	if quoteCents < 0 {
		return repository.Request{}, apperr.Validation("quote must not be negative")
	}
	req, err := s.store.UpdateRequestStatus(ctx, id, StatusNew, StatusQuoted, &quoteCents)
	if err != nil {
		return repository.Request{}, mapQuoteErr(ctx, s, id, err)
	}
	return req, nil
}

// Reject closes a request that will not become a booking. Allowed from new
// and quoted.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (repository.Request, error) {
	current, err := s.GetRequest(ctx, id)
	if err != nil {
		return repository.Request{}, err
	}
	if current.Status != StatusNew && current.Status != StatusQuoted {
		return repository.Request{}, apperr.Conflict(
			fmt.Sprintf("request cannot be rejected (current: %s)", current.Status))
	}
	req, err := s.store.UpdateRequestStatus(ctx, id, current.Status, StatusRejected, nil)
	if err != nil {
		return repository.Request{}, mapStoreErr(err)
	}
	return req, nil
}

// Convert turns a quoted request into a booking. The request must be linked
// to a customer; the new booking starts in the card-capture phase carrying
// the quoted amount.
func (s *Service) Convert(ctx context.Context, id uuid.UUID) (repository.Request, uuid.UUID, error) {
	current, err := s.GetRequest(ctx, id)
	if err != nil {
		return repository.Request{}, uuid.Nil, err
	}
	if current.Status != StatusQuoted {
		return repository.Request{}, uuid.Nil, apperr.Conflict(
			fmt.Sprintf("only quoted requests can be converted (current: %s)", current.Status))
	}
	if current.CustomerID == nil {
		return repository.Request{}, uuid.Nil, apperr.Conflict("request has no linked customer")
	}
	if s.bookings == nil {
		return repository.Request{}, uuid.Nil, apperr.Internal("booking creation is not configured")
	}

	bookingID, err := s.bookings.CreateFromIntake(ctx, *current.CustomerID, current.QuoteCents, "intake_conversion")
	if err != nil {
		return repository.Request{}, uuid.Nil, fmt.Errorf("create booking from intake: %w", err)
	}

	req, err := s.store.UpdateRequestStatus(ctx, id, StatusQuoted, StatusConverted, nil)
	if err != nil {
		// The booking exists; surface the request inconsistency loudly.
		s.log.Error("intake request conversion could not be recorded",
			"request_id", id, "booking_id", bookingID, "error", err)
		return repository.Request{}, uuid.Nil, mapStoreErr(err)
	}
	return req, bookingID, nil
}

// ListFeedRequests serves the unified feed.
func (s *Service) ListFeedRequests(ctx context.Context, q repository.FeedQuery) ([]repository.Request, error) {
	return s.store.ListFeedRequests(ctx, q)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("intake request not found")
	case errors.Is(err, repository.ErrStalePrecondition):
		return apperr.Conflict("request status changed concurrently")
	}
	return err
}

// mapQuoteErr distinguishes "not found" from "wrong status" on the guarded
// quote update so the API stays precise.
func mapQuoteErr(ctx context.Context, s *Service, id uuid.UUID, err error) error {
	if !errors.Is(err, repository.ErrStalePrecondition) {
		return err
	}
	current, getErr := s.store.GetRequest(ctx, id)
	if errors.Is(getErr, repository.ErrNotFound) {
		return apperr.NotFound("intake request not found")
	}
	if getErr != nil {
		return getErr
	}
	return apperr.Conflict(fmt.Sprintf("only new requests can be quoted (current: %s)", current.Status))
}
