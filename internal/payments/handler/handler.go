// Package handler exposes the payments module over HTTP.
package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"cleanops_backend/internal/payments/repository"
	"cleanops_backend/internal/payments/service"
	"cleanops_backend/platform/httpkit"
	"cleanops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// WebhookSecretHeader carries the shared secret on provider webhook calls.
	WebhookSecretHeader = "X-Webhook-Secret"
)

// Handler serves the payments HTTP API.
type Handler struct {
	svc           *service.Service
	val           *validator.Validator
	webhookSecret string
}

// New creates a payments handler.
func New(svc *service.Service, val *validator.Validator, webhookSecret string) *Handler {
	return &Handler{svc: svc, val: val, webhookSecret: webhookSecret}
}

// RegisterRoutes mounts authenticated payment routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id", h.ListByBooking)
}

// RegisterPublicRoutes mounts the provider webhook endpoint.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Webhook)
}

// webhookRequest is the provider's event payload.
type webhookRequest struct {
	Type        string    `json:"type" validate:"required,oneof=card_saved charge_succeeded charge_failed"`
	BookingID   uuid.UUID `json:"bookingId" validate:"required"`
	AmountCents *int64    `json:"amountCents" validate:"omitempty,gte=0"`
	ExternalRef *string   `json:"externalRef" validate:"omitempty,max=255"`
	FailureCode *string   `json:"failureCode" validate:"omitempty,max=100"`
}

// Webhook accepts payment provider events, authenticated by shared secret.
func (h *Handler) Webhook(c *gin.Context) {
	if h.webhookSecret == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, "payment webhook disabled", nil)
		return
	}
	provided := c.GetHeader(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.HandleProviderEvent(c.Request.Context(), service.ProviderEvent{
		Type:        req.Type,
		BookingID:   req.BookingID,
		AmountCents: req.AmountCents,
		ExternalRef: req.ExternalRef,
		FailureCode: req.FailureCode,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "processed"})
}

// paymentResponse is the API shape of a payment record.
type paymentResponse struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"bookingId"`
	Status      string    `json:"status"`
	AmountCents *int64    `json:"amountCents,omitempty"`
	ExternalRef *string   `json:"externalRef,omitempty"`
	FailureCode *string   `json:"failureCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) ListByBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	payments, err := h.svc.ListByBooking(c.Request.Context(), bookingID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	httpkit.OK(c, out)
}

func toPaymentResponse(p repository.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		Status:      p.Status,
		AmountCents: p.AmountCents,
		ExternalRef: p.ExternalRef,
		FailureCode: p.FailureCode,
		CreatedAt:   p.CreatedAt,
	}
}
