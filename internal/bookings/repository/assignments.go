package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Assignment is a crew member's or crew's claim on a booking.
type Assignment struct {
	ID           uuid.UUID
	BookingID    uuid.UUID
	CleanerID    *uuid.UUID
	CrewID       *uuid.UUID
	Role         string
	Status       string
	AssignedAt   time.Time
	ConfirmedAt  *time.Time
	ClockedInAt  *time.Time
	ClockedOutAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const assignmentSelectCols = `
	id, booking_id, cleaner_id, crew_id, role, status, assigned_at,
	confirmed_at, clocked_in_at, clocked_out_at, created_at, updated_at`

func scanAssignment(s bookingRowScanner) (Assignment, error) {
	var a Assignment
	if err := s.Scan(
		&a.ID, &a.BookingID, &a.CleanerID, &a.CrewID, &a.Role, &a.Status, &a.AssignedAt,
		&a.ConfirmedAt, &a.ClockedInAt, &a.ClockedOutAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// CreateAssignmentParams contains parameters for inserting an assignment.
type CreateAssignmentParams struct {
	BookingID uuid.UUID
	CleanerID *uuid.UUID
	CrewID    *uuid.UUID
	Role      string
	Status    string
}

func (r *Repository) CreateAssignment(ctx context.Context, params CreateAssignmentParams) (Assignment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO booking_assignments (booking_id, cleaner_id, crew_id, role, status, assigned_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING`+assignmentSelectCols,
		params.BookingID, params.CleanerID, params.CrewID, params.Role, params.Status,
	)
	return scanAssignment(row)
}

func (r *Repository) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+assignmentSelectCols+`
		FROM booking_assignments WHERE id = $1
	`, id)
	a, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}

// AssignmentStamps carries the timestamp columns a status change may set.
type AssignmentStamps struct {
	ConfirmedAt  *time.Time
	ClockedInAt  *time.Time
	ClockedOutAt *time.Time
}

// UpdateAssignmentStatus patches the sub-state with a precondition on the
// current value, stamping whichever timestamps the new state carries.
func (r *Repository) UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, stamps AssignmentStamps) (Assignment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE booking_assignments
		SET status = $3,
		    confirmed_at   = COALESCE($4, confirmed_at),
		    clocked_in_at  = COALESCE($5, clocked_in_at),
		    clocked_out_at = COALESCE($6, clocked_out_at),
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING`+assignmentSelectCols,
		id, fromStatus, toStatus, stamps.ConfirmedAt, stamps.ClockedInAt, stamps.ClockedOutAt,
	)
	a, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrStalePrecondition
	}
	return a, err
}

// ListAssignments returns all assignments for a booking in assignment order.
func (r *Repository) ListAssignments(ctx context.Context, bookingID uuid.UUID) ([]Assignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+assignmentSelectCols+`
		FROM booking_assignments WHERE booking_id = $1
		ORDER BY assigned_at ASC, id ASC
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
