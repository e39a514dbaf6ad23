// Package payments provides the payments ledger bounded context module.
package payments

import (
	apphttp "cleanops_backend/internal/http"
	"cleanops_backend/internal/payments/handler"
	"cleanops_backend/internal/payments/repository"
	"cleanops_backend/internal/payments/service"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/logger"
	"cleanops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the payments bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the payments module.
func NewModule(pool *pgxpool.Pool, bookings service.BookingLifecycle, val *validator.Validator, cfg config.WebhookConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bookings, log)
	h := handler.New(svc, val, cfg.GetPaymentWebhookSecret())
	return &Module{handler: h, svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "payments" }

// RegisterRoutes mounts the payments routes. The provider webhook is public
// and protected by shared secret plus the stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/payments"))

	public := ctx.V1.Group("/webhooks")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)
}
