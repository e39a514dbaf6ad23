// Package repository provides database operations for the payments ledger.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Payment statuses recorded in the ledger.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Repository provides database operations for payments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new payments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Payment is one charge attempt against a booking. Rows are append-only;
// a retry after failure is a new row.
type Payment struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	Status      string
	AmountCents *int64
	ExternalRef *string
	FailureCode *string
	CreatedAt   time.Time
}

const paymentSelectCols = `
	id, booking_id, status, amount_cents, external_ref, failure_code, created_at`

// CreatePaymentParams contains parameters for inserting a payment record.
type CreatePaymentParams struct {
	BookingID   uuid.UUID
	Status      string
	AmountCents *int64
	ExternalRef *string
	FailureCode *string
}

func (r *Repository) CreatePayment(ctx context.Context, params CreatePaymentParams) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (booking_id, status, amount_cents, external_ref, failure_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING`+paymentSelectCols,
		params.BookingID, params.Status, params.AmountCents, params.ExternalRef, params.FailureCode,
	).Scan(
		&p.ID, &p.BookingID, &p.Status, &p.AmountCents, &p.ExternalRef, &p.FailureCode, &p.CreatedAt,
	)
	return p, err
}

// ListPaymentsByBooking returns a booking's payment history, newest first.
func (r *Repository) ListPaymentsByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+paymentSelectCols+`
		FROM payments WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.BookingID, &p.Status, &p.AmountCents, &p.ExternalRef, &p.FailureCode, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
