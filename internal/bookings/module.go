// Package bookings provides the booking lifecycle bounded context module.
package bookings

import (
	"context"

	"cleanops_backend/internal/bookings/feed"
	"cleanops_backend/internal/bookings/handler"
	"cleanops_backend/internal/bookings/ports"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/internal/bookings/service"
	"cleanops_backend/internal/events"
	apphttp "cleanops_backend/internal/http"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/logger"
	"cleanops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the bookings bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	feedSvc *feed.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the bookings module. reminders may be nil
// when no task queue is configured.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, reminders ports.ReminderScheduler, val *validator.Validator, cfg config.BookingConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(txStore{repo}, eventBus, reminders, log, cfg.GetStrictTransitions())
	feedSvc := feed.New(repo, nil)
	h := handler.New(svc, feedSvc, val)

	return &Module{handler: h, svc: svc, feedSvc: feedSvc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "bookings" }

// RegisterRoutes mounts the bookings routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/bookings"))
	m.handler.RegisterAssignmentRoutes(ctx.Protected.Group("/assignments"))
	m.handler.RegisterChecklistRoutes(ctx.Protected.Group("/checklist-items"))
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Service exposes the lifecycle service for cross-module adapters.
func (m *Module) Service() *service.Service { return m.svc }

// SetPreBookingFeed injects the intake module's feed source so the unified
// feed can merge pre-booking requests.
func (m *Module) SetPreBookingFeed(source ports.PreBookingFeed) {
	m.feedSvc.SetRequestSource(source)
}

// txStore adapts the repository's transaction helper to the service's
// Store-typed callback.
type txStore struct {
	*repository.Repository
}

func (s txStore) WithinTx(ctx context.Context, fn func(tx service.Store) error) error {
	return s.Repository.WithinTx(ctx, func(tx *repository.Repository) error {
		return fn(tx)
	})
}
