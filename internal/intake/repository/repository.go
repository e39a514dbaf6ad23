// Package repository provides database operations for pre-booking intake
// requests.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("intake request not found")
	// ErrStalePrecondition means a guarded UPDATE matched no row because the
	// expected current status no longer holds.
	ErrStalePrecondition = errors.New("status precondition failed")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides database operations for intake requests.
type Repository struct {
	db DBTX
}

// New creates a new intake repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Request is the database model of a pre-booking intake request.
type Request struct {
	ID          uuid.UUID
	CustomerID  *uuid.UUID
	Name        *string
	Email       *string
	Phone       *string
	Address     *string
	ServiceType *string
	Notes       *string
	QuoteCents  *int64
	Status      string
	Source      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const requestSelectCols = `
	id, customer_id, name, email, phone, address, service_type, notes,
	quote_cents, status, source, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(s rowScanner) (Request, error) {
	var r Request
	if err := s.Scan(
		&r.ID, &r.CustomerID, &r.Name, &r.Email, &r.Phone, &r.Address,
		&r.ServiceType, &r.Notes, &r.QuoteCents, &r.Status, &r.Source,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return Request{}, err
	}
	return r, nil
}

// CreateRequestParams contains parameters for inserting an intake request.
type CreateRequestParams struct {
	CustomerID  *uuid.UUID
	Name        *string
	Email       *string
	Phone       *string
	Address     *string
	ServiceType *string
	Notes       *string
	Status      string
	Source      *string
}

func (r *Repository) CreateRequest(ctx context.Context, params CreateRequestParams) (Request, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO intake_requests (
			customer_id, name, email, phone, address, service_type, notes, status, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING`+requestSelectCols,
		params.CustomerID, params.Name, params.Email, params.Phone, params.Address,
		params.ServiceType, params.Notes, params.Status, params.Source,
	)
	return scanRequest(row)
}

func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+requestSelectCols+`
		FROM intake_requests WHERE id = $1
	`, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// UpdateRequestStatus patches the quote status with a precondition on the
// current value.
func (r *Repository) UpdateRequestStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, quoteCents *int64) (Request, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE intake_requests
		SET status = $3, quote_cents = COALESCE($4, quote_cents), updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING`+requestSelectCols,
		id, fromStatus, toStatus, quoteCents,
	)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrStalePrecondition
	}
	return req, err
}

// LinkCustomer attaches a customer to a request after a late upsert.
func (r *Repository) LinkCustomer(ctx context.Context, id, customerID uuid.UUID) (Request, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE intake_requests
		SET customer_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+requestSelectCols,
		id, customerID,
	)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// FeedQuery selects a keyset page of intake rows for the unified feed.
type FeedQuery struct {
	Limit           int
	BeforeCreatedAt *time.Time
	BeforeID        *uuid.UUID
	Statuses        []string
	Search          string
}

// ListFeedRequests returns intake requests newest first for the unified feed.
func (r *Repository) ListFeedRequests(ctx context.Context, q FeedQuery) ([]Request, error) {
	query := `
		SELECT` + requestSelectCols + `
		FROM intake_requests
		WHERE 1=1`
	args := []any{}

	if q.BeforeCreatedAt != nil && q.BeforeID != nil {
		args = append(args, *q.BeforeCreatedAt, *q.BeforeID)
		query += ` AND (created_at, id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	if len(q.Statuses) > 0 {
		args = append(args, q.Statuses)
		query += ` AND status = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		idx := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + idx + ` OR email ILIKE $` + idx + `)`
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
