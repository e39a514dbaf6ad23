// Package intake provides the pre-booking request bounded context module.
package intake

import (
	"context"

	bookingports "cleanops_backend/internal/bookings/ports"
	"cleanops_backend/internal/events"
	apphttp "cleanops_backend/internal/http"
	"cleanops_backend/internal/intake/handler"
	"cleanops_backend/internal/intake/repository"
	"cleanops_backend/internal/intake/service"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/logger"
	"cleanops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the intake bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the intake module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, customers service.CustomerUpserter, bookings service.BookingCreator, val *validator.Validator, cfg config.WebhookConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, customers, bookings, eventBus, log)
	h := handler.New(svc, val, cfg.GetIntakeWebhookSecret())
	return &Module{handler: h, svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "intake" }

// RegisterRoutes mounts the intake routes. The webhook endpoint is public and
// protected by shared secret plus the stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/intake-requests"))

	public := ctx.V1.Group("/webhooks")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)
}

// FeedSource exposes intake requests to the unified booking feed.
func (m *Module) FeedSource() bookingports.PreBookingFeed {
	return feedAdapter{svc: m.svc}
}

// feedAdapter maps intake rows onto the feed contract the bookings module
// defines.
type feedAdapter struct {
	svc *service.Service
}

func (a feedAdapter) ListFeedRequests(ctx context.Context, q bookingports.PreBookingFeedQuery) ([]bookingports.PreBookingRow, error) {
	rows, err := a.svc.ListFeedRequests(ctx, repository.FeedQuery{
		Limit:           q.Limit,
		BeforeCreatedAt: q.BeforeCreatedAt,
		BeforeID:        q.BeforeID,
		Statuses:        q.Statuses,
		Search:          q.Search,
	})
	if err != nil {
		return nil, err
	}
	out := make([]bookingports.PreBookingRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, bookingports.PreBookingRow{
			ID:            r.ID,
			Status:        r.Status,
			CustomerID:    r.CustomerID,
			CustomerName:  r.Name,
			CustomerEmail: r.Email,
			QuoteCents:    r.QuoteCents,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}
