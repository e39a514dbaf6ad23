// Package transport defines request and response DTOs for the intake API.
package transport

import (
	"time"

	"cleanops_backend/internal/intake/repository"

	"github.com/google/uuid"
)

// SubmitRequestRequest captures a pre-booking request, from the public
// webhook or the staff portal.
type SubmitRequestRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	ServiceType *string `json:"serviceType" validate:"omitempty,max=100"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
	Source      string  `json:"source" validate:"omitempty,max=64"`
}

// QuoteRequest attaches a price to a request.
type QuoteRequest struct {
	QuoteCents int64 `json:"quoteCents" validate:"gte=0"`
}

// RequestResponse is the API shape of an intake request.
type RequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	ServiceType *string    `json:"serviceType,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	QuoteCents  *int64     `json:"quoteCents,omitempty"`
	Status      string     `json:"status"`
	Source      *string    `json:"source,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ConvertResponse reports the outcome of converting a request.
type ConvertResponse struct {
	Request   RequestResponse `json:"request"`
	BookingID uuid.UUID       `json:"bookingId"`
}

// ToRequestResponse maps a repository request to its API shape.
func ToRequestResponse(r repository.Request) RequestResponse {
	return RequestResponse{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		ServiceType: r.ServiceType,
		Notes:       r.Notes,
		QuoteCents:  r.QuoteCents,
		Status:      r.Status,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
