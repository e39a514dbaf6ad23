// Package customers provides the customer records bounded context module.
package customers

import (
	"context"

	"cleanops_backend/internal/customers/handler"
	"cleanops_backend/internal/customers/repository"
	"cleanops_backend/internal/customers/service"
	apphttp "cleanops_backend/internal/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the customers bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the customers module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{handler: handler.New(svc), svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "customers" }

// RegisterRoutes mounts the customers routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/customers"))
}

// Service exposes the customers service for cross-module adapters.
func (m *Module) Service() *service.Service { return m.svc }

// Upserter adapts the service to the contact-resolution contract other
// modules consume.
type Upserter struct {
	svc *service.Service
}

// NewUpserter creates the upsert adapter.
func NewUpserter(svc *service.Service) *Upserter {
	return &Upserter{svc: svc}
}

// UpsertByContact resolves contact details to a customer ID.
func (u *Upserter) UpsertByContact(ctx context.Context, name, email, phone *string) (uuid.UUID, error) {
	customer, err := u.svc.UpsertByContact(ctx, name, email, phone)
	if err != nil {
		return uuid.Nil, err
	}
	return customer.ID, nil
}
