package adapters

import (
	"context"

	"cleanops_backend/internal/customers/service"
	"cleanops_backend/internal/email"

	"github.com/google/uuid"
)

// CustomerDirectoryAdapter implements the email module's CustomerDirectory
// over the customers service.
type CustomerDirectoryAdapter struct {
	svc *service.Service
}

// NewCustomerDirectoryAdapter creates the email -> customers adapter.
func NewCustomerDirectoryAdapter(svc *service.Service) *CustomerDirectoryAdapter {
	return &CustomerDirectoryAdapter{svc: svc}
}

func (a *CustomerDirectoryAdapter) GetContact(ctx context.Context, customerID uuid.UUID) (email.CustomerContact, error) {
	c, err := a.svc.Get(ctx, customerID)
	if err != nil {
		return email.CustomerContact{}, err
	}
	return email.CustomerContact{Name: c.Name, Email: c.Email}, nil
}
