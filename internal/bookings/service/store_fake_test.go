package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/repository"

	"github.com/google/uuid"
)

// fakeStore is an in-memory TxStore mirroring the repository's semantics,
// including status preconditions and the full-recompute stats hook.
type fakeStore struct {
	mu             sync.Mutex
	clock          time.Time
	bookings       map[uuid.UUID]repository.Booking
	assignments    map[uuid.UUID]repository.Assignment
	checklist      map[uuid.UUID]repository.ChecklistItem
	events         []repository.BookingEvent
	failedPayments map[uuid.UUID]bool
	stats          map[uuid.UUID]customerStats
}

type customerStats struct {
	totalBookings   int
	totalSpentCents int64
	lastBookingDate *time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:          time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		bookings:       make(map[uuid.UUID]repository.Booking),
		assignments:    make(map[uuid.UUID]repository.Assignment),
		checklist:      make(map[uuid.UUID]repository.ChecklistItem),
		failedPayments: make(map[uuid.UUID]bool),
		stats:          make(map[uuid.UUID]customerStats),
	}
}

// tick returns a strictly increasing timestamp so keyset ordering is stable.
func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) WithinTx(_ context.Context, fn func(tx Store) error) error {
	return fn(f)
}

func (f *fakeStore) CreateBooking(_ context.Context, params repository.CreateBookingParams) (repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	b := repository.Booking{
		ID:                 uuid.New(),
		CustomerID:         params.CustomerID,
		Status:             params.Status,
		ServiceDate:        params.ServiceDate,
		ServiceWindowStart: params.ServiceWindowStart,
		ServiceWindowEnd:   params.ServiceWindowEnd,
		AmountCents:        params.AmountCents,
		Source:             params.Source,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeStore) GetBooking(_ context.Context, id uuid.UUID) (repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpdateBookingStatus(_ context.Context, id uuid.UUID, fromStatus, toStatus string) (repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != fromStatus {
		return repository.Booking{}, repository.ErrStalePrecondition
	}
	b.Status = toStatus
	b.UpdatedAt = f.tick()
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) UpdateBookingSchedule(_ context.Context, id uuid.UUID, serviceDate time.Time, windowStart, windowEnd *string) (repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.Booking{}, repository.ErrNotFound
	}
	b.ServiceDate = &serviceDate
	b.ServiceWindowStart = windowStart
	b.ServiceWindowEnd = windowEnd
	b.UpdatedAt = f.tick()
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) ListBookingsByCustomer(_ context.Context, customerID uuid.UUID) ([]repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Booking
	for _, b := range f.bookings {
		if b.CustomerID != nil && *b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListLegacyFailedBookings(_ context.Context) ([]repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Booking
	for _, b := range f.bookings {
		if b.Status == string(domain.StatusLegacyFailed) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) HasFailedPayment(_ context.Context, bookingID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failedPayments[bookingID], nil
}

func (f *fakeStore) RecomputeCustomerStats(_ context.Context, customerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats customerStats
	for _, b := range f.bookings {
		if b.CustomerID == nil || *b.CustomerID != customerID {
			continue
		}
		stats.totalBookings++
		if domain.CountsTowardSpend(domain.Status(b.Status)) && b.AmountCents != nil {
			stats.totalSpentCents += *b.AmountCents
		}
		if b.ServiceDate != nil && (stats.lastBookingDate == nil || b.ServiceDate.After(*stats.lastBookingDate)) {
			stats.lastBookingDate = b.ServiceDate
		}
	}
	f.stats[customerID] = stats
	return nil
}

func (f *fakeStore) AppendEvent(_ context.Context, params repository.AppendEventParams) (repository.BookingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event := repository.BookingEvent{
		ID:              uuid.New(),
		BookingID:       params.BookingID,
		EventType:       params.EventType,
		FromStatus:      params.FromStatus,
		ToStatus:        params.ToStatus,
		Source:          params.Source,
		Reason:          params.Reason,
		ActorUserID:     params.ActorUserID,
		FromServiceDate: params.FromServiceDate,
		ToServiceDate:   params.ToServiceDate,
		Metadata:        params.Metadata,
		CreatedAt:       f.tick(),
	}
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeStore) ListEvents(_ context.Context, params repository.ListEventsParams) ([]repository.BookingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.BookingEvent
	for _, e := range f.events {
		if e.BookingID != params.BookingID {
			continue
		}
		if params.BeforeCreatedAt != nil && !e.CreatedAt.Before(*params.BeforeCreatedAt) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, params repository.CreateAssignmentParams) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	a := repository.Assignment{
		ID:         uuid.New(),
		BookingID:  params.BookingID,
		CleanerID:  params.CleanerID,
		CrewID:     params.CrewID,
		Role:       params.Role,
		Status:     params.Status,
		AssignedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.assignments[a.ID] = a
	return a, nil
}

func (f *fakeStore) GetAssignment(_ context.Context, id uuid.UUID) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok {
		return repository.Assignment{}, repository.ErrAssignmentNotFound
	}
	return a, nil
}

func (f *fakeStore) UpdateAssignmentStatus(_ context.Context, id uuid.UUID, fromStatus, toStatus string, stamps repository.AssignmentStamps) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok || a.Status != fromStatus {
		return repository.Assignment{}, repository.ErrStalePrecondition
	}
	a.Status = toStatus
	if stamps.ConfirmedAt != nil {
		a.ConfirmedAt = stamps.ConfirmedAt
	}
	if stamps.ClockedInAt != nil {
		a.ClockedInAt = stamps.ClockedInAt
	}
	if stamps.ClockedOutAt != nil {
		a.ClockedOutAt = stamps.ClockedOutAt
	}
	a.UpdatedAt = f.tick()
	f.assignments[id] = a
	return a, nil
}

func (f *fakeStore) ListAssignments(_ context.Context, bookingID uuid.UUID) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Assignment
	for _, a := range f.assignments {
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}

func (f *fakeStore) CreateChecklistItem(_ context.Context, params repository.CreateChecklistItemParams) (repository.ChecklistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	item := repository.ChecklistItem{
		ID:                  uuid.New(),
		BookingAssignmentID: params.BookingAssignmentID,
		BookingID:           params.BookingID,
		Label:               params.Label,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.checklist[item.ID] = item
	return item, nil
}

func (f *fakeStore) SetChecklistItemCompleted(_ context.Context, id uuid.UUID, isCompleted bool) (repository.ChecklistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.checklist[id]
	if !ok {
		return repository.ChecklistItem{}, repository.ErrChecklistNotFound
	}
	item.IsCompleted = isCompleted
	item.UpdatedAt = f.tick()
	f.checklist[id] = item
	return item, nil
}

func (f *fakeStore) ListChecklistItems(_ context.Context, assignmentID uuid.UUID) ([]repository.ChecklistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ChecklistItem
	for _, item := range f.checklist {
		if item.BookingAssignmentID == assignmentID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// eventsFor returns the recorded lifecycle events for a booking, oldest first.
func (f *fakeStore) eventsFor(bookingID uuid.UUID) []repository.BookingEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.BookingEvent
	for _, e := range f.events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out
}

// fakeReminders records reminder scheduling calls.
type fakeReminders struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakeReminders) ScheduleServiceReminder(_ context.Context, bookingID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, bookingID)
	return nil
}
