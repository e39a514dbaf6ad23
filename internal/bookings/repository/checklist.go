package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ChecklistItem is a task belonging to one assignment. Incomplete items gate
// the assignment's clock-out.
type ChecklistItem struct {
	ID                  uuid.UUID
	BookingAssignmentID uuid.UUID
	BookingID           uuid.UUID
	Label               string
	IsCompleted         bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

const checklistSelectCols = `
	id, booking_assignment_id, booking_id, label, is_completed, created_at, updated_at`

// CreateChecklistItemParams contains parameters for inserting a checklist item.
type CreateChecklistItemParams struct {
	BookingAssignmentID uuid.UUID
	BookingID           uuid.UUID
	Label               string
}

func (r *Repository) CreateChecklistItem(ctx context.Context, params CreateChecklistItemParams) (ChecklistItem, error) {
	var item ChecklistItem
	err := r.db.QueryRow(ctx, `
		INSERT INTO booking_checklist_items (booking_assignment_id, booking_id, label)
		VALUES ($1, $2, $3)
		RETURNING`+checklistSelectCols,
		params.BookingAssignmentID, params.BookingID, params.Label,
	).Scan(
		&item.ID, &item.BookingAssignmentID, &item.BookingID, &item.Label,
		&item.IsCompleted, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

// SetChecklistItemCompleted toggles an item. Pure field update; the only
// state-machine effect is through the clock-out gate.
func (r *Repository) SetChecklistItemCompleted(ctx context.Context, id uuid.UUID, isCompleted bool) (ChecklistItem, error) {
	var item ChecklistItem
	err := r.db.QueryRow(ctx, `
		UPDATE booking_checklist_items
		SET is_completed = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+checklistSelectCols,
		id, isCompleted,
	).Scan(
		&item.ID, &item.BookingAssignmentID, &item.BookingID, &item.Label,
		&item.IsCompleted, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ChecklistItem{}, ErrChecklistNotFound
	}
	return item, err
}

// ListChecklistItems returns all checklist items for an assignment.
func (r *Repository) ListChecklistItems(ctx context.Context, assignmentID uuid.UUID) ([]ChecklistItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+checklistSelectCols+`
		FROM booking_checklist_items WHERE booking_assignment_id = $1
		ORDER BY created_at ASC, id ASC
	`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ChecklistItem, 0)
	for rows.Next() {
		var item ChecklistItem
		if err := rows.Scan(
			&item.ID, &item.BookingAssignmentID, &item.BookingID, &item.Label,
			&item.IsCompleted, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
