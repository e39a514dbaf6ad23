package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingEvent is an immutable lifecycle audit record. Rows are only ever
// inserted; "undoing" a transition happens through a new override event.
type BookingEvent struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	EventType       string
	FromStatus      *string
	ToStatus        *string
	Source          string
	Reason          *string
	ActorUserID     *uuid.UUID
	ActorName       *string
	FromServiceDate *time.Time
	ToServiceDate   *time.Time
	Metadata        map[string]any
	CreatedAt       time.Time
}

// AppendEventParams contains parameters for inserting a lifecycle event.
type AppendEventParams struct {
	BookingID       uuid.UUID
	EventType       string
	FromStatus      *string
	ToStatus        *string
	Source          string
	Reason          *string
	ActorUserID     *uuid.UUID
	FromServiceDate *time.Time
	ToServiceDate   *time.Time
	Metadata        map[string]any
}

// AppendEvent inserts one lifecycle event. Pure insert; validation of which
// fields a given event type requires belongs to the caller.
func (r *Repository) AppendEvent(ctx context.Context, params AppendEventParams) (BookingEvent, error) {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return BookingEvent{}, err
	}

	var event BookingEvent
	err = r.db.QueryRow(ctx, `
		INSERT INTO booking_events (
			booking_id, event_type, from_status, to_status, source, reason,
			actor_user_id, from_service_date, to_service_date, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, booking_id, event_type, from_status, to_status, source, reason,
			actor_user_id, from_service_date, to_service_date, created_at
	`, params.BookingID, params.EventType, params.FromStatus, params.ToStatus,
		params.Source, params.Reason, params.ActorUserID,
		params.FromServiceDate, params.ToServiceDate, metadataJSON,
	).Scan(
		&event.ID, &event.BookingID, &event.EventType, &event.FromStatus, &event.ToStatus,
		&event.Source, &event.Reason, &event.ActorUserID,
		&event.FromServiceDate, &event.ToServiceDate, &event.CreatedAt,
	)
	if err != nil {
		return BookingEvent{}, err
	}

	event.Metadata = params.Metadata
	return event, nil
}

// ListEventsParams selects a keyset page of a booking's timeline.
type ListEventsParams struct {
	BookingID       uuid.UUID
	Limit           int
	BeforeCreatedAt *time.Time
	BeforeID        *uuid.UUID
}

// ListEvents returns lifecycle events for one booking, newest first, with the
// actor's display name resolved when the actor is a known user.
func (r *Repository) ListEvents(ctx context.Context, params ListEventsParams) ([]BookingEvent, error) {
	query := `
		SELECT e.id, e.booking_id, e.event_type, e.from_status, e.to_status, e.source,
			e.reason, e.actor_user_id, u.display_name, e.from_service_date, e.to_service_date,
			e.metadata, e.created_at
		FROM booking_events e
		LEFT JOIN users u ON u.id = e.actor_user_id
		WHERE e.booking_id = $1`
	args := []any{params.BookingID}

	if params.BeforeCreatedAt != nil && params.BeforeID != nil {
		query += ` AND (e.created_at, e.id) < ($2, $3)`
		args = append(args, *params.BeforeCreatedAt, *params.BeforeID)
	}

	query += ` ORDER BY e.created_at DESC, e.id DESC`
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]BookingEvent, 0)
	for rows.Next() {
		var event BookingEvent
		var rawMetadata []byte
		if err := rows.Scan(
			&event.ID, &event.BookingID, &event.EventType, &event.FromStatus, &event.ToStatus,
			&event.Source, &event.Reason, &event.ActorUserID, &event.ActorName,
			&event.FromServiceDate, &event.ToServiceDate, &rawMetadata, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(rawMetadata) > 0 {
			_ = json.Unmarshal(rawMetadata, &event.Metadata)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountEvents returns the number of lifecycle events recorded for a booking.
func (r *Repository) CountEvents(ctx context.Context, bookingID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM booking_events WHERE booking_id = $1
	`, bookingID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return count, err
}
