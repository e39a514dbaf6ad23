package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/platform/apperr"

	"github.com/google/uuid"
)

// CreateAssignmentParams are the caller-supplied fields of a new assignment.
// Exactly one of CleanerID and CrewID must be set.
type CreateAssignmentParams struct {
	BookingID   uuid.UUID
	CleanerID   *uuid.UUID
	CrewID      *uuid.UUID
	Role        string
	Source      string
	ActorUserID *uuid.UUID
}

// CreateAssignment adds a crew member or crew to a booking in the pending
// sub-state and re-evaluates the schedule gate, since the roster just grew.
func (s *Service) CreateAssignment(ctx context.Context, params CreateAssignmentParams) (repository.Assignment, error) {
	if (params.CleanerID == nil) == (params.CrewID == nil) {
		return repository.Assignment{}, apperr.Validation("exactly one of cleanerId and crewId is required")
	}
	role := params.Role
	if role == "" {
		role = domain.RolePrimary
	}

	var created repository.Assignment
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, params.BookingID)
		if err != nil {
			return mapStoreErr(err)
		}

		created, err = tx.CreateAssignment(ctx, repository.CreateAssignmentParams{
			BookingID: params.BookingID,
			CleanerID: params.CleanerID,
			CrewID:    params.CrewID,
			Role:      role,
			Status:    string(domain.AssignmentPending),
		})
		if err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}

		_, changes, err = s.recomputeGate(ctx, tx, b, params.Source, params.ActorUserID, nil)
		return err
	})
	if err != nil {
		return repository.Assignment{}, err
	}

	s.publish(ctx, changes...)
	return created, nil
}

// GetAssignment loads one assignment.
func (s *Service) GetAssignment(ctx context.Context, id uuid.UUID) (repository.Assignment, error) {
	a, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return repository.Assignment{}, mapStoreErr(err)
	}
	return a, nil
}

// ListAssignments returns a booking's assignments in assignment order.
func (s *Service) ListAssignments(ctx context.Context, bookingID uuid.UUID) ([]repository.Assignment, error) {
	return s.store.ListAssignments(ctx, bookingID)
}

// AcceptAssignment moves a pending assignment to accepted.
func (s *Service) AcceptAssignment(ctx context.Context, assignmentID uuid.UUID) (repository.Assignment, error) {
	return s.transitionAssignment(ctx, assignmentID, domain.AssignmentAccepted, "")
}

// DeclineAssignment moves a pending assignment to declined and re-evaluates
// the schedule gate, since the booking may have lost its only crew.
func (s *Service) DeclineAssignment(ctx context.Context, assignmentID uuid.UUID, source string) (repository.Assignment, error) {
	return s.transitionAssignment(ctx, assignmentID, domain.AssignmentDeclined, source)
}

// ConfirmAssignment moves an accepted assignment to confirmed, stamping
// confirmed_at.
func (s *Service) ConfirmAssignment(ctx context.Context, assignmentID uuid.UUID) (repository.Assignment, error) {
	return s.transitionAssignment(ctx, assignmentID, domain.AssignmentConfirmed, "")
}

// CancelAssignment cancels an assignment that has not started work and
// re-evaluates the schedule gate.
func (s *Service) CancelAssignment(ctx context.Context, assignmentID uuid.UUID, source string) (repository.Assignment, error) {
	return s.transitionAssignment(ctx, assignmentID, domain.AssignmentCancelled, source)
}

// ClockIn moves a confirmed assignment to in_progress and rolls the start up
// into the parent booking: the first crew to start work moves the booking
// from scheduled to in_progress.
func (s *Service) ClockIn(ctx context.Context, assignmentID uuid.UUID, source string) (repository.Assignment, error) {
	var updated repository.Assignment
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return mapStoreErr(err)
		}

		updated, err = applyAssignmentTransition(ctx, tx, a, domain.AssignmentInProgress)
		if err != nil {
			return err
		}

		changes, err = s.rollup(ctx, tx, a.BookingID, source)
		return err
	})
	if err != nil {
		return repository.Assignment{}, err
	}

	s.publish(ctx, changes...)
	return updated, nil
}

// ClockOut completes an in-progress assignment. It is gated on the
// assignment's checklist: every item must be completed first. When the last
// active assignment finishes, the rollup moves the booking to completed.
func (s *Service) ClockOut(ctx context.Context, assignmentID uuid.UUID, source string) (repository.Assignment, error) {
	var updated repository.Assignment
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return mapStoreErr(err)
		}

		items, err := tx.ListChecklistItems(ctx, assignmentID)
		if err != nil {
			return fmt.Errorf("list checklist items: %w", err)
		}
		for _, item := range items {
			if !item.IsCompleted {
				return domain.ErrChecklistIncomplete()
			}
		}

		updated, err = applyAssignmentTransition(ctx, tx, a, domain.AssignmentCompleted)
		if err != nil {
			return err
		}

		changes, err = s.rollup(ctx, tx, a.BookingID, source)
		return err
	})
	if err != nil {
		return repository.Assignment{}, err
	}

	s.publish(ctx, changes...)
	return updated, nil
}

// AddChecklistItem attaches a task to an assignment.
func (s *Service) AddChecklistItem(ctx context.Context, assignmentID uuid.UUID, label string) (repository.ChecklistItem, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return repository.ChecklistItem{}, mapStoreErr(err)
	}
	return s.store.CreateChecklistItem(ctx, repository.CreateChecklistItemParams{
		BookingAssignmentID: a.ID,
		BookingID:           a.BookingID,
		Label:               label,
	})
}

// SetChecklistItemCompleted toggles a checklist item. No state-machine side
// effects; the checklist only matters at clock-out.
func (s *Service) SetChecklistItemCompleted(ctx context.Context, itemID uuid.UUID, isCompleted bool) (repository.ChecklistItem, error) {
	item, err := s.store.SetChecklistItemCompleted(ctx, itemID, isCompleted)
	if err != nil {
		return repository.ChecklistItem{}, mapStoreErr(err)
	}
	return item, nil
}

// ListChecklistItems returns an assignment's checklist.
func (s *Service) ListChecklistItems(ctx context.Context, assignmentID uuid.UUID) ([]repository.ChecklistItem, error) {
	return s.store.ListChecklistItems(ctx, assignmentID)
}

// transitionAssignment applies one assignment edge; when the change can shrink
// the active roster, it re-evaluates the schedule gate in the same transaction.
func (s *Service) transitionAssignment(ctx context.Context, assignmentID uuid.UUID, to domain.AssignmentStatus, gateSource string) (repository.Assignment, error) {
	var updated repository.Assignment
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return mapStoreErr(err)
		}

		updated, err = applyAssignmentTransition(ctx, tx, a, to)
		if err != nil {
			return err
		}

		if !assignmentActive(to) {
			b, err := tx.GetBooking(ctx, a.BookingID)
			if err != nil {
				return mapStoreErr(err)
			}
			_, changes, err = s.recomputeGate(ctx, tx, b, gateSource, nil, nil)
			return err
		}
		return nil
	})
	if err != nil {
		return repository.Assignment{}, err
	}

	s.publish(ctx, changes...)
	return updated, nil
}

// applyAssignmentTransition validates the edge against the assignment table
// and performs the guarded write, stamping the timestamp the new state carries.
func applyAssignmentTransition(ctx context.Context, tx Store, a repository.Assignment, to domain.AssignmentStatus) (repository.Assignment, error) {
	from := domain.AssignmentStatus(a.Status)
	if !domain.CanTransitionAssignment(from, to) {
		return repository.Assignment{}, domain.ErrInvalidAssignmentTransition(from, to)
	}

	now := time.Now()
	var stamps repository.AssignmentStamps
	switch to {
	case domain.AssignmentConfirmed:
		stamps.ConfirmedAt = &now
	case domain.AssignmentInProgress:
		stamps.ClockedInAt = &now
	case domain.AssignmentCompleted:
		stamps.ClockedOutAt = &now
	}

	updated, err := tx.UpdateAssignmentStatus(ctx, a.ID, a.Status, string(to), stamps)
	if err != nil {
		if errors.Is(err, repository.ErrStalePrecondition) {
			return repository.Assignment{}, apperr.Conflict(
				fmt.Sprintf("assignment status changed concurrently (expected %s)", a.Status))
		}
		return repository.Assignment{}, fmt.Errorf("update assignment status: %w", err)
	}
	return updated, nil
}

// rollup folds the assignment sub-states into the parent booking: any active
// assignment starting promotes scheduled to in_progress, and all active
// assignments finishing promotes in_progress to completed. Both promotions
// run through the normal transition path inside the caller's transaction, so
// a single clock-out can legally advance the booking twice.
func (s *Service) rollup(ctx context.Context, tx Store, bookingID uuid.UUID, source string) ([]statusChange, error) {
	b, err := tx.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	current := domain.Status(b.Status)
	if current != domain.StatusScheduled && current != domain.StatusInProgress {
		return nil, nil
	}

	assignments, err := tx.ListAssignments(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	active, started, completed := 0, 0, 0
	for _, a := range assignments {
		status := domain.AssignmentStatus(a.Status)
		if !assignmentActive(status) {
			continue
		}
		active++
		if domain.AssignmentStarted(status) {
			started++
		}
		if status == domain.AssignmentCompleted {
			completed++
		}
	}
	if active == 0 {
		return nil, nil
	}

	var changes []statusChange
	if current == domain.StatusScheduled && started > 0 {
		updated, err := s.applyTransition(ctx, tx, b, domain.StatusInProgress, source, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		changes = append(changes, statusChange{booking: updated, from: current, to: domain.StatusInProgress, source: source})
		b, current = updated, domain.StatusInProgress
	}
	if current == domain.StatusInProgress && completed == active {
		updated, err := s.applyTransition(ctx, tx, b, domain.StatusCompleted, source, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		changes = append(changes, statusChange{booking: updated, from: current, to: domain.StatusCompleted, source: source})
	}
	return changes, nil
}
