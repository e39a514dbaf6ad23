// Package auth provides the staff authentication bounded context module.
package auth

import (
	"cleanops_backend/internal/auth/handler"
	"cleanops_backend/internal/auth/repository"
	"cleanops_backend/internal/auth/service"
	apphttp "cleanops_backend/internal/http"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/logger"
	"cleanops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "auth" }

// RegisterRoutes mounts auth routes. Login is public but sits behind the
// stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/auth")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterRoutes(ctx.Protected.Group("/auth"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/auth"))
}
