package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound           = errors.New("booking not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrChecklistNotFound  = errors.New("checklist item not found")
	// ErrStalePrecondition means a guarded UPDATE matched no row because the
	// expected current status no longer holds.
	ErrStalePrecondition = errors.New("status precondition failed")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so every query method works
// both standalone and inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides database operations for bookings, assignments,
// checklist items and lifecycle events.
type Repository struct {
	pool *pgxpool.Pool
	db   DBTX
}

// New creates a new bookings repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithinTx runs fn against a transaction-bound copy of the repository.
// Every read and write fn performs shares one serializable unit, so a
// transition cannot commit against a stale current status.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{pool: r.pool, db: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Booking is the database model for a booking row.
type Booking struct {
	ID                 uuid.UUID
	CustomerID         *uuid.UUID
	Status             string
	ServiceDate        *time.Time
	ServiceWindowStart *string
	ServiceWindowEnd   *string
	AmountCents        *int64
	Source             *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const bookingSelectCols = `
	id, customer_id, status, service_date, service_window_start, service_window_end,
	amount_cents, source, created_at, updated_at`

type bookingRowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s bookingRowScanner) (Booking, error) {
	var b Booking
	if err := s.Scan(
		&b.ID, &b.CustomerID, &b.Status, &b.ServiceDate, &b.ServiceWindowStart,
		&b.ServiceWindowEnd, &b.AmountCents, &b.Source, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return Booking{}, err
	}
	return b, nil
}

// CreateBookingParams contains parameters for inserting a booking.
type CreateBookingParams struct {
	CustomerID         *uuid.UUID
	Status             string
	ServiceDate        *time.Time
	ServiceWindowStart *string
	ServiceWindowEnd   *string
	AmountCents        *int64
	Source             *string
}

func (r *Repository) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO bookings (
			customer_id, status, service_date, service_window_start, service_window_end,
			amount_cents, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+bookingSelectCols,
		params.CustomerID, params.Status, params.ServiceDate, params.ServiceWindowStart,
		params.ServiceWindowEnd, params.AmountCents, params.Source,
	)
	return scanBooking(row)
}

func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+bookingSelectCols+`
		FROM bookings WHERE id = $1
	`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

// UpdateBookingStatus patches the status with a precondition on the current
// value. Matching no row means either the booking is gone or a concurrent
// writer changed the status first; callers distinguish via ErrStalePrecondition.
func (r *Repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING`+bookingSelectCols,
		id, fromStatus, toStatus,
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrStalePrecondition
	}
	return b, err
}

// UpdateBookingSchedule replaces the service date and window.
func (r *Repository) UpdateBookingSchedule(ctx context.Context, id uuid.UUID, serviceDate time.Time, windowStart, windowEnd *string) (Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET service_date = $2, service_window_start = $3, service_window_end = $4, updated_at = now()
		WHERE id = $1
		RETURNING`+bookingSelectCols,
		id, serviceDate, windowStart, windowEnd,
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

// ListBookingsByCustomer returns all bookings linked to a customer, newest first.
func (r *Repository) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+bookingSelectCols+`
		FROM bookings WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListLegacyFailedBookings returns bookings still carrying the retired
// "failed" status, oldest first so backfill output is stable.
func (r *Repository) ListLegacyFailedBookings(ctx context.Context) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+bookingSelectCols+`
		FROM bookings WHERE status = 'failed'
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// HasFailedPayment reports whether the booking has at least one payment
// record in a failure status. Used as corroborating evidence by the legacy
// backfill; this is a read-only peek at the payments ledger.
func (r *Repository) HasFailedPayment(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'failed'
		)
	`, bookingID).Scan(&exists)
	return exists, err
}

// RecomputeCustomerStats recalculates a customer's booking aggregates from
// scratch. Full recompute keeps the hook idempotent under override
// transitions that move spend-eligibility in either direction.
func (r *Repository) RecomputeCustomerStats(ctx context.Context, customerID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers c
		SET total_bookings   = stats.total_bookings,
		    total_spent_cents = stats.total_spent_cents,
		    last_booking_date = stats.last_booking_date,
		    updated_at        = now()
		FROM (
			SELECT
				COUNT(*)                                                                   AS total_bookings,
				COALESCE(SUM(amount_cents) FILTER (WHERE status IN ('completed', 'charged')), 0) AS total_spent_cents,
				MAX(service_date)                                                          AS last_booking_date
			FROM bookings
			WHERE customer_id = $1
		) AS stats
		WHERE c.id = $1
	`, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	items := make([]Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
