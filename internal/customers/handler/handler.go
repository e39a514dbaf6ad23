// Package handler exposes the customers module over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"cleanops_backend/internal/customers/repository"
	"cleanops_backend/internal/customers/service"
	"cleanops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Handler serves the customers HTTP API.
type Handler struct {
	svc *service.Service
}

// New creates a customers handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts authenticated customer routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}

// CustomerResponse is the API shape of a customer.
type CustomerResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            *string    `json:"name,omitempty"`
	Email           *string    `json:"email,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	TotalBookings   int        `json:"totalBookings"`
	TotalSpentCents int64      `json:"totalSpentCents"`
	LastBookingDate *time.Time `json:"lastBookingDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toResponse(c repository.Customer) CustomerResponse {
	return CustomerResponse{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		TotalBookings:   c.TotalBookings,
		TotalSpentCents: c.TotalSpentCents,
		LastBookingDate: c.LastBookingDate,
		CreatedAt:       c.CreatedAt,
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	customer, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(customer))
}

func (h *Handler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	customers, err := h.svc.List(c.Request.Context(), repository.ListParams{
		Limit:  limit,
		Search: c.Query("search"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		out = append(out, toResponse(customer))
	}
	httpkit.OK(c, out)
}
