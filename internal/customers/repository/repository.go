// Package repository provides database operations for customer records and
// their booking aggregates.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("customer not found")

// Repository provides database operations for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new customers repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Customer is the database model of a customer. The aggregate columns are
// maintained by the bookings module's stats recompute hook.
type Customer struct {
	ID              uuid.UUID
	Name            *string
	Email           *string
	Phone           *string
	TotalBookings   int
	TotalSpentCents int64
	LastBookingDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const customerSelectCols = `
	id, name, email, phone, total_bookings, total_spent_cents, last_booking_date,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s rowScanner) (Customer, error) {
	var c Customer
	if err := s.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalBookings, &c.TotalSpentCents,
		&c.LastBookingDate, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+customerSelectCols+`
		FROM customers WHERE id = $1
	`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

// UpsertByContact resolves contact details to a customer row, matching on
// email first, then phone. New details fill gaps but never overwrite
// existing values.
func (r *Repository) UpsertByContact(ctx context.Context, name, email, phone *string) (Customer, error) {
	if email != nil {
		row := r.pool.QueryRow(ctx, `
			SELECT`+customerSelectCols+`
			FROM customers WHERE email = $1
		`, *email)
		if c, err := scanCustomer(row); err == nil {
			return r.fillContact(ctx, c, name, phone)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, err
		}
	}
	if phone != nil {
		row := r.pool.QueryRow(ctx, `
			SELECT`+customerSelectCols+`
			FROM customers WHERE phone = $1
		`, *phone)
		if c, err := scanCustomer(row); err == nil {
			return r.fillContact(ctx, c, name, nil)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, err
		}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING`+customerSelectCols,
		name, email, phone,
	)
	return scanCustomer(row)
}

func (r *Repository) fillContact(ctx context.Context, c Customer, name, phone *string) (Customer, error) {
	if (name == nil || c.Name != nil) && (phone == nil || c.Phone != nil) {
		return c, nil
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = COALESCE(name, $2), phone = COALESCE(phone, $3), updated_at = now()
		WHERE id = $1
		RETURNING`+customerSelectCols,
		c.ID, name, phone,
	)
	return scanCustomer(row)
}

// ListParams selects a keyset page of customers.
type ListParams struct {
	Limit           int
	BeforeCreatedAt *time.Time
	BeforeID        *uuid.UUID
	Search          string
}

// ListCustomers returns customers newest first.
func (r *Repository) ListCustomers(ctx context.Context, params ListParams) ([]Customer, error) {
	query := `
		SELECT` + customerSelectCols + `
		FROM customers
		WHERE 1=1`
	args := []any{}

	if params.BeforeCreatedAt != nil && params.BeforeID != nil {
		args = append(args, *params.BeforeCreatedAt, *params.BeforeID)
		query += ` AND (created_at, id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		idx := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + idx + ` OR email ILIKE $` + idx + `)`
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
