// Package service implements the booking lifecycle: the transition guard,
// the audited override path, scheduling, cancellation and the assignment
// sub-state machine with its rollup into the parent booking.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/ports"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/internal/events"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository both standalone and transaction-bound.
type Store interface {
	CreateBooking(ctx context.Context, params repository.CreateBookingParams) (repository.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (repository.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (repository.Booking, error)
	UpdateBookingSchedule(ctx context.Context, id uuid.UUID, serviceDate time.Time, windowStart, windowEnd *string) (repository.Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]repository.Booking, error)
	ListLegacyFailedBookings(ctx context.Context) ([]repository.Booking, error)
	HasFailedPayment(ctx context.Context, bookingID uuid.UUID) (bool, error)
	RecomputeCustomerStats(ctx context.Context, customerID uuid.UUID) error

	AppendEvent(ctx context.Context, params repository.AppendEventParams) (repository.BookingEvent, error)
	ListEvents(ctx context.Context, params repository.ListEventsParams) ([]repository.BookingEvent, error)

	CreateAssignment(ctx context.Context, params repository.CreateAssignmentParams) (repository.Assignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (repository.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, stamps repository.AssignmentStamps) (repository.Assignment, error)
	ListAssignments(ctx context.Context, bookingID uuid.UUID) ([]repository.Assignment, error)

	CreateChecklistItem(ctx context.Context, params repository.CreateChecklistItemParams) (repository.ChecklistItem, error)
	SetChecklistItemCompleted(ctx context.Context, id uuid.UUID, isCompleted bool) (repository.ChecklistItem, error)
	ListChecklistItems(ctx context.Context, assignmentID uuid.UUID) ([]repository.ChecklistItem, error)
}

// TxStore adds transactional composition on top of Store. All reads and
// writes inside fn share one transaction.
type TxStore interface {
	Store
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Service orchestrates booking lifecycle operations.
type Service struct {
	store     TxStore
	bus       events.Bus
	reminders ports.ReminderScheduler
	log       *logger.Logger
	strict    bool
}

// New creates a bookings service. reminders may be nil when no task queue is
// configured. strict enables transition-table enforcement; when false,
// off-table transitions are recorded but not blocked.
func New(store TxStore, bus events.Bus, reminders ports.ReminderScheduler, log *logger.Logger, strict bool) *Service {
	return &Service{store: store, bus: bus, reminders: reminders, log: log, strict: strict}
}

// statusChange captures one accepted booking transition for post-commit
// event publication.
type statusChange struct {
	booking  repository.Booking
	from     domain.Status
	to       domain.Status
	source   string
	override bool
}

// CreateBookingParams are the caller-supplied fields of a new booking.
type CreateBookingParams struct {
	CustomerID         *uuid.UUID
	ServiceDate        *time.Time
	ServiceWindowStart *string
	ServiceWindowEnd   *string
	AmountCents        *int64
	Source             string
	ActorUserID        *uuid.UUID
}

// CreateBooking inserts a booking in the initial pending_card status and
// records the creation event.
func (s *Service) CreateBooking(ctx context.Context, params CreateBookingParams) (repository.Booking, error) {
	var created repository.Booking
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		var source *string
		if params.Source != "" {
			source = &params.Source
		}
		created, err = tx.CreateBooking(ctx, repository.CreateBookingParams{
			CustomerID:         params.CustomerID,
			Status:             string(domain.StatusPendingCard),
			ServiceDate:        params.ServiceDate,
			ServiceWindowStart: params.ServiceWindowStart,
			ServiceWindowEnd:   params.ServiceWindowEnd,
			AmountCents:        params.AmountCents,
			Source:             source,
		})
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		toStatus := created.Status
		if _, err := tx.AppendEvent(ctx, repository.AppendEventParams{
			BookingID:   created.ID,
			EventType:   domain.EventCreated,
			ToStatus:    &toStatus,
			Source:      params.Source,
			ActorUserID: params.ActorUserID,
		}); err != nil {
			return fmt.Errorf("append creation event: %w", err)
		}

		if created.CustomerID != nil {
			if err := tx.RecomputeCustomerStats(ctx, *created.CustomerID); err != nil {
				return fmt.Errorf("recompute customer stats: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.bus.Publish(ctx, events.BookingCreated{
		BaseEvent:  events.NewBaseEvent(),
		BookingID:  created.ID,
		CustomerID: created.CustomerID,
		Source:     params.Source,
	})
	return created, nil
}

// GetBooking loads one booking.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (repository.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return repository.Booking{}, mapStoreErr(err)
	}
	return b, nil
}

// ListBookingsByCustomer returns a customer's bookings, newest first.
func (s *Service) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]repository.Booking, error) {
	return s.store.ListBookingsByCustomer(ctx, customerID)
}

// TransitionParams describe a requested status change.
type TransitionParams struct {
	ToStatus    domain.Status
	Source      string
	Reason      *string
	ActorUserID *uuid.UUID
	Metadata    map[string]any
	// Override requests the audited bypass of the transition table. The
	// reason becomes mandatory and the source must be on the allow-list.
	Override bool
}

// Transition is the single write path for booking status changes. Normal
// requests are validated against the transition table; override requests
// bypass the table but require a reason and an allow-listed source. Every
// accepted change appends a lifecycle event and refreshes customer stats in
// the same transaction.
func (s *Service) Transition(ctx context.Context, bookingID uuid.UUID, params TransitionParams) (repository.Booking, error) {
	if !domain.IsKnown(params.ToStatus) {
		return repository.Booking{}, apperr.Validation(fmt.Sprintf("unknown status %q", params.ToStatus))
	}
	if params.Override {
		if params.Reason == nil || strings.TrimSpace(*params.Reason) == "" {
			return repository.Booking{}, domain.ErrMissingReason()
		}
		if !domain.OverrideSources[params.Source] {
			return repository.Booking{}, domain.ErrOverrideSourceNotAllowed(params.Source)
		}
	}

	var updated repository.Booking
	var change statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return mapStoreErr(err)
		}

		if params.Override {
			updated, err = s.recordTransition(ctx, tx, b, params.ToStatus, domain.EventOverrideTransition,
				params.Source, params.Reason, params.ActorUserID, params.Metadata)
		} else {
			updated, err = s.applyTransition(ctx, tx, b, params.ToStatus,
				params.Source, params.Reason, params.ActorUserID, params.Metadata)
		}
		if err != nil {
			return err
		}
		change = statusChange{
			booking:  updated,
			from:     domain.Status(b.Status),
			to:       params.ToStatus,
			source:   params.Source,
			override: params.Override,
		}
		return nil
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.publish(ctx, change)
	return updated, nil
}

// ConfirmCard moves a booking out of pending_card once a payment method is on
// file, then re-evaluates the schedule gate so a booking that already has a
// date and crew lands directly in scheduled.
func (s *Service) ConfirmCard(ctx context.Context, bookingID uuid.UUID, source string, actorUserID *uuid.UUID) (repository.Booking, error) {
	var updated repository.Booking
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return mapStoreErr(err)
		}

		updated, err = s.applyTransition(ctx, tx, b, domain.StatusCardSaved, source, nil, actorUserID, nil)
		if err != nil {
			return err
		}
		changes = append(changes, statusChange{
			booking: updated, from: domain.Status(b.Status), to: domain.StatusCardSaved, source: source,
		})

		updated, changes, err = s.recomputeGate(ctx, tx, updated, source, actorUserID, changes)
		return err
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.publish(ctx, changes...)
	return updated, nil
}

// Cancel cancels a booking, allowed only before work has started.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, source, reason string, actorUserID *uuid.UUID) (repository.Booking, error) {
	var updated repository.Booking
	var change statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return mapStoreErr(err)
		}

		current := domain.Status(b.Status)
		if !domain.CanCancel(current) {
			return domain.ErrCancellationNotAllowed(current)
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		updated, err = s.applyTransition(ctx, tx, b, domain.StatusCancelled, source, reasonPtr, actorUserID, nil)
		if err != nil {
			return err
		}
		change = statusChange{booking: updated, from: current, to: domain.StatusCancelled, source: source}
		return nil
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.publish(ctx, change)
	return updated, nil
}

// RescheduleParams describe a schedule change.
type RescheduleParams struct {
	ServiceDate        time.Time
	ServiceWindowStart *string
	ServiceWindowEnd   *string
	Reason             *string
	Source             string
	ActorUserID        *uuid.UUID
}

// Reschedule replaces the booking's service date and window, records a
// rescheduled event with the old and new dates plus the window change in
// metadata, and re-evaluates the schedule gate.
func (s *Service) Reschedule(ctx context.Context, bookingID uuid.UUID, params RescheduleParams) (repository.Booking, error) {
	var updated repository.Booking
	var fromDate *time.Time
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return mapStoreErr(err)
		}
		fromDate = b.ServiceDate

		updated, err = tx.UpdateBookingSchedule(ctx, bookingID, params.ServiceDate,
			params.ServiceWindowStart, params.ServiceWindowEnd)
		if err != nil {
			return mapStoreErr(err)
		}

		toDate := params.ServiceDate
		if _, err := tx.AppendEvent(ctx, repository.AppendEventParams{
			BookingID:       bookingID,
			EventType:       domain.EventRescheduled,
			Source:          params.Source,
			Reason:          params.Reason,
			ActorUserID:     params.ActorUserID,
			FromServiceDate: fromDate,
			ToServiceDate:   &toDate,
			Metadata: map[string]any{
				"fromWindowStart": b.ServiceWindowStart,
				"fromWindowEnd":   b.ServiceWindowEnd,
				"toWindowStart":   params.ServiceWindowStart,
				"toWindowEnd":     params.ServiceWindowEnd,
			},
		}); err != nil {
			return fmt.Errorf("append reschedule event: %w", err)
		}

		updated, changes, err = s.recomputeGate(ctx, tx, updated, params.Source, params.ActorUserID, changes)
		return err
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.bus.Publish(ctx, events.BookingRescheduled{
		BaseEvent:       events.NewBaseEvent(),
		BookingID:       updated.ID,
		CustomerID:      updated.CustomerID,
		FromServiceDate: fromDate,
		ToServiceDate:   params.ServiceDate,
	})
	s.publish(ctx, changes...)
	return updated, nil
}

// RecomputeScheduledState re-evaluates the schedule gate for one booking:
// card_saved with a date and active crew is promoted to scheduled, and
// scheduled without active crew is demoted back to card_saved. Both moves go
// through the normal transition path so the edge table stays authoritative.
func (s *Service) RecomputeScheduledState(ctx context.Context, bookingID uuid.UUID, source string, actorUserID *uuid.UUID) (repository.Booking, error) {
	var updated repository.Booking
	var changes []statusChange
	err := s.store.WithinTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return mapStoreErr(err)
		}
		updated, changes, err = s.recomputeGate(ctx, tx, b, source, actorUserID, nil)
		return err
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.publish(ctx, changes...)
	return updated, nil
}

// ListTimeline returns a keyset page of a booking's lifecycle events, newest
// first.
func (s *Service) ListTimeline(ctx context.Context, params repository.ListEventsParams) ([]repository.BookingEvent, error) {
	if _, err := s.GetBooking(ctx, params.BookingID); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, params)
}

// recomputeGate applies the schedule gate against the given booking snapshot
// inside the caller's transaction, appending any resulting change to changes.
func (s *Service) recomputeGate(ctx context.Context, tx Store, b repository.Booking, source string, actorUserID *uuid.UUID, changes []statusChange) (repository.Booking, []statusChange, error) {
	current := domain.Status(b.Status)
	if current != domain.StatusCardSaved && current != domain.StatusScheduled {
		return b, changes, nil
	}

	assignments, err := tx.ListAssignments(ctx, b.ID)
	if err != nil {
		return b, changes, fmt.Errorf("list assignments: %w", err)
	}
	active := 0
	for _, a := range assignments {
		if assignmentActive(domain.AssignmentStatus(a.Status)) {
			active++
		}
	}

	var to domain.Status
	switch {
	case current == domain.StatusCardSaved && b.ServiceDate != nil && active > 0:
		to = domain.StatusScheduled
	case current == domain.StatusScheduled && active == 0:
		to = domain.StatusCardSaved
	default:
		return b, changes, nil
	}

	updated, err := s.applyTransition(ctx, tx, b, to, source, nil, actorUserID, nil)
	if err != nil {
		return b, changes, err
	}
	return updated, append(changes, statusChange{booking: updated, from: current, to: to, source: source}), nil
}

// applyTransition is the guard's normal path: table check (in strict mode),
// guarded status write, lifecycle event, stats refresh.
func (s *Service) applyTransition(ctx context.Context, tx Store, b repository.Booking, to domain.Status, source string, reason *string, actorUserID *uuid.UUID, metadata map[string]any) (repository.Booking, error) {
	from := domain.Status(b.Status)
	if s.strict && !domain.CanTransition(from, to) {
		return repository.Booking{}, domain.ErrInvalidTransition(from, to)
	}
	return s.recordTransition(ctx, tx, b, to, domain.EventTransition, source, reason, actorUserID, metadata)
}

// recordTransition performs the guarded write and its bookkeeping. The
// booking snapshot's status is the precondition; a concurrent change
// surfaces as ErrStaleStatus instead of a silent lost update.
func (s *Service) recordTransition(ctx context.Context, tx Store, b repository.Booking, to domain.Status, eventType, source string, reason *string, actorUserID *uuid.UUID, metadata map[string]any) (repository.Booking, error) {
	updated, err := tx.UpdateBookingStatus(ctx, b.ID, b.Status, string(to))
	if err != nil {
		if errors.Is(err, repository.ErrStalePrecondition) {
			return repository.Booking{}, domain.ErrStaleStatus(domain.Status(b.Status))
		}
		return repository.Booking{}, fmt.Errorf("update booking status: %w", err)
	}

	fromStatus := b.Status
	toStatus := string(to)
	if _, err := tx.AppendEvent(ctx, repository.AppendEventParams{
		BookingID:   b.ID,
		EventType:   eventType,
		FromStatus:  &fromStatus,
		ToStatus:    &toStatus,
		Source:      source,
		Reason:      reason,
		ActorUserID: actorUserID,
		Metadata:    metadata,
	}); err != nil {
		return repository.Booking{}, fmt.Errorf("append lifecycle event: %w", err)
	}

	if b.CustomerID != nil {
		if err := tx.RecomputeCustomerStats(ctx, *b.CustomerID); err != nil {
			return repository.Booking{}, fmt.Errorf("recompute customer stats: %w", err)
		}
	}
	return updated, nil
}

// publish emits status-changed events after commit and schedules a service
// reminder when a booking lands in scheduled.
func (s *Service) publish(ctx context.Context, changes ...statusChange) {
	for _, ch := range changes {
		s.bus.Publish(ctx, events.BookingStatusChanged{
			BaseEvent:   events.NewBaseEvent(),
			BookingID:   ch.booking.ID,
			CustomerID:  ch.booking.CustomerID,
			FromStatus:  string(ch.from),
			ToStatus:    string(ch.to),
			Source:      ch.source,
			Override:    ch.override,
			ServiceDate: ch.booking.ServiceDate,
		})

		if ch.to == domain.StatusScheduled && s.reminders != nil && ch.booking.ServiceDate != nil {
			runAt := ch.booking.ServiceDate.Add(-24 * time.Hour)
			if err := s.reminders.ScheduleServiceReminder(ctx, ch.booking.ID, runAt); err != nil {
				s.log.Warn("failed to schedule service reminder",
					"booking_id", ch.booking.ID, "error", err)
			}
		}
	}
}

// assignmentActive reports whether an assignment still counts as crew on the
// booking. Declined and cancelled assignments never perform work.
func assignmentActive(status domain.AssignmentStatus) bool {
	return status != domain.AssignmentCancelled && status != domain.AssignmentDeclined
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("booking not found")
	case errors.Is(err, repository.ErrAssignmentNotFound):
		return apperr.NotFound("assignment not found")
	case errors.Is(err, repository.ErrChecklistNotFound):
		return apperr.NotFound("checklist item not found")
	}
	return err
}
