// Package handler exposes the intake module over HTTP.
package handler

import (
	"crypto/subtle"
	"net/http"

	"cleanops_backend/internal/intake/service"
	"cleanops_backend/internal/intake/transport"
	"cleanops_backend/platform/httpkit"
	"cleanops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// WebhookSecretHeader carries the shared secret on public webhook calls.
	WebhookSecretHeader = "X-Webhook-Secret"
)

// Handler serves the intake HTTP API.
type Handler struct {
	svc           *service.Service
	val           *validator.Validator
	webhookSecret string
}

// New creates an intake handler.
func New(svc *service.Service, val *validator.Validator, webhookSecret string) *Handler {
	return &Handler{svc: svc, val: val, webhookSecret: webhookSecret}
}

// RegisterRoutes mounts authenticated intake routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/quote", h.Quote)
	rg.POST("/:id/reject", h.Reject)
	rg.POST("/:id/convert", h.Convert)
}

// RegisterPublicRoutes mounts the unauthenticated webhook endpoint.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/intake", h.Webhook)
}

// Webhook accepts pre-booking requests from external forms, authenticated by
// shared secret.
func (h *Handler) Webhook(c *gin.Context) {
	if h.webhookSecret == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, "intake webhook disabled", nil)
		return
	}
	provided := c.GetHeader(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
		return
	}
	h.submit(c, "web_form")
}

// Submit accepts requests entered by staff.
func (h *Handler) Submit(c *gin.Context) {
	h.submit(c, "staff_portal")
}

func (h *Handler) submit(c *gin.Context, defaultSource string) {
	var req transport.SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	source := req.Source
	if source == "" {
		source = defaultSource
	}

	created, err := h.svc.SubmitRequest(c.Request.Context(), service.SubmitRequestParams{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		ServiceType: req.ServiceType,
		Notes:       req.Notes,
		Source:      source,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToRequestResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := h.svc.GetRequest(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRequestResponse(req))
}

func (h *Handler) Quote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	updated, err := h.svc.Quote(c.Request.Context(), id, req.QuoteCents)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRequestResponse(updated))
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	updated, err := h.svc.Reject(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRequestResponse(updated))
}

func (h *Handler) Convert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	updated, bookingID, err := h.svc.Convert(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConvertResponse{
		Request:   transport.ToRequestResponse(updated),
		BookingID: bookingID,
	})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}
