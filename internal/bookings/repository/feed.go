package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// FeedBooking is a booking row enriched with its customer's contact fields
// for the unified funnel feed.
type FeedBooking struct {
	ID            uuid.UUID
	Status        string
	ServiceDate   *time.Time
	AmountCents   *int64
	CustomerID    *uuid.UUID
	CustomerName  *string
	CustomerEmail *string
	CreatedAt     time.Time
}

// FeedQuery selects a keyset page of feed rows. Statuses narrows the result
// to an explicit status set (used to push funnel-stage filters into SQL);
// Search matches case-insensitively against customer name and email.
type FeedQuery struct {
	Limit           int
	BeforeCreatedAt *time.Time
	BeforeID        *uuid.UUID
	Statuses        []string
	Search          string
}

// ListFeedBookings returns bookings newest first for the unified feed.
func (r *Repository) ListFeedBookings(ctx context.Context, q FeedQuery) ([]FeedBooking, error) {
	query := `
		SELECT b.id, b.status, b.service_date, b.amount_cents, b.customer_id,
			c.name, c.email, b.created_at
		FROM bookings b
		LEFT JOIN customers c ON c.id = b.customer_id
		WHERE 1=1`
	args := []any{}

	if q.BeforeCreatedAt != nil && q.BeforeID != nil {
		args = append(args, *q.BeforeCreatedAt, *q.BeforeID)
		query += ` AND (b.created_at, b.id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	if len(q.Statuses) > 0 {
		args = append(args, q.Statuses)
		query += ` AND b.status = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		idx := strconv.Itoa(len(args))
		query += ` AND (c.name ILIKE $` + idx + ` OR c.email ILIKE $` + idx + `)`
	}

	query += ` ORDER BY b.created_at DESC, b.id DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FeedBooking, 0)
	for rows.Next() {
		var row FeedBooking
		if err := rows.Scan(
			&row.ID, &row.Status, &row.ServiceDate, &row.AmountCents, &row.CustomerID,
			&row.CustomerName, &row.CustomerEmail, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
