// Package service provides customer lookup and contact resolution.
package service

import (
	"context"
	"errors"

	"cleanops_backend/internal/customers/repository"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (repository.Customer, error)
	UpsertByContact(ctx context.Context, name, email, phone *string) (repository.Customer, error)
	ListCustomers(ctx context.Context, params repository.ListParams) ([]repository.Customer, error)
}

// Service orchestrates customer operations.
type Service struct {
	store Store
}

// New creates a customers service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Get loads one customer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	return c, err
}

// List returns a keyset page of customers.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Customer, error) {
	return s.store.ListCustomers(ctx, params)
}

// UpsertByContact resolves contact details to a customer, normalizing the
// phone number first. At least one of email and phone must be present.
func (s *Service) UpsertByContact(ctx context.Context, name, email, phoneNumber *string) (repository.Customer, error) {
	if email == nil && phoneNumber == nil {
		return repository.Customer{}, apperr.Validation("email or phone is required")
	}
	if phoneNumber != nil {
		normalized := phone.NormalizeE164(*phoneNumber)
		phoneNumber = &normalized
	}
	return s.store.UpsertByContact(ctx, name, email, phoneNumber)
}
