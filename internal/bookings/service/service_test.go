package service

import (
	"context"
	"testing"
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/internal/events"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
)

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeReminders) {
	t.Helper()
	store := newFakeStore()
	reminders := &fakeReminders{}
	log := logger.New("development")
	return New(store, events.NewInMemoryBus(log), reminders, log, true), store, reminders
}

func seedBooking(t *testing.T, store *fakeStore, status domain.Status, customerID *uuid.UUID, amountCents *int64, serviceDate *time.Time) repository.Booking {
	t.Helper()
	b, err := store.CreateBooking(context.Background(), repository.CreateBookingParams{
		CustomerID:  customerID,
		Status:      string(status),
		ServiceDate: serviceDate,
		AmountCents: amountCents,
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func seedAssignment(t *testing.T, store *fakeStore, bookingID uuid.UUID, status domain.AssignmentStatus) repository.Assignment {
	t.Helper()
	cleanerID := uuid.New()
	a, err := store.CreateAssignment(context.Background(), repository.CreateAssignmentParams{
		BookingID: bookingID,
		CleanerID: &cleanerID,
		Role:      domain.RolePrimary,
		Status:    string(status),
	})
	if err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return a
}

func i64(v int64) *int64         { return &v }
func strPtr(s string) *string    { return &s }
func datePtr(v time.Time) *time.Time { return &v }

func mustStatus(t *testing.T, store *fakeStore, bookingID uuid.UUID, want domain.Status) {
	t.Helper()
	b, err := store.GetBooking(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if domain.Status(b.Status) != want {
		t.Fatalf("booking status = %s, want %s", b.Status, want)
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusPendingCard, nil, nil, nil)

	_, err := svc.Transition(ctx, b.ID, TransitionParams{ToStatus: domain.StatusCompleted, Source: "api"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	mustStatus(t, store, b.ID, domain.StatusPendingCard)
	if got := len(store.eventsFor(b.ID)); got != 0 {
		t.Fatalf("events recorded = %d, want 0", got)
	}
}

func TestTransitionRejectsUnknownAndRetiredStatus(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCompleted, nil, nil, nil)

	for _, to := range []domain.Status{"exploded", domain.StatusLegacyFailed} {
		_, err := svc.Transition(ctx, b.ID, TransitionParams{ToStatus: to, Source: "api"})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("Transition(%q) err = %v, want validation", to, err)
		}
	}
}

func TestTransitionLegalEdge(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusPendingCard, nil, nil, nil)

	updated, err := svc.Transition(ctx, b.ID, TransitionParams{ToStatus: domain.StatusCardSaved, Source: "payment_webhook"})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if domain.Status(updated.Status) != domain.StatusCardSaved {
		t.Fatalf("status = %s, want card_saved", updated.Status)
	}

	evts := store.eventsFor(b.ID)
	if len(evts) != 1 {
		t.Fatalf("events = %d, want 1", len(evts))
	}
	e := evts[0]
	if e.EventType != domain.EventTransition {
		t.Errorf("event type = %s, want transition", e.EventType)
	}
	if e.FromStatus == nil || *e.FromStatus != string(domain.StatusPendingCard) {
		t.Errorf("from status = %v, want pending_card", e.FromStatus)
	}
	if e.ToStatus == nil || *e.ToStatus != string(domain.StatusCardSaved) {
		t.Errorf("to status = %v, want card_saved", e.ToStatus)
	}
	if e.Source != "payment_webhook" {
		t.Errorf("source = %s, want payment_webhook", e.Source)
	}
}

func TestOverrideRequiresReason(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCompleted, nil, nil, nil)

	for _, reason := range []*string{nil, strPtr(""), strPtr("   ")} {
		_, err := svc.Transition(ctx, b.ID, TransitionParams{
			ToStatus: domain.StatusScheduled, Source: "admin_override", Reason: reason, Override: true,
		})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("override with reason %v: err = %v, want validation", reason, err)
		}
	}
	mustStatus(t, store, b.ID, domain.StatusCompleted)
}

func TestOverrideSourceAllowList(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCompleted, nil, nil, nil)

	_, err := svc.Transition(ctx, b.ID, TransitionParams{
		ToStatus: domain.StatusScheduled, Source: "mobile_app", Reason: strPtr("customer dispute"), Override: true,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	mustStatus(t, store, b.ID, domain.StatusCompleted)
}

func TestOverrideBypassesTable(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCompleted, nil, nil, nil)

	actor := uuid.New()
	updated, err := svc.Transition(ctx, b.ID, TransitionParams{
		ToStatus:    domain.StatusScheduled,
		Source:      "admin_override",
		Reason:      strPtr("service was never performed"),
		ActorUserID: &actor,
		Override:    true,
	})
	if err != nil {
		t.Fatalf("override transition: %v", err)
	}
	if domain.Status(updated.Status) != domain.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", updated.Status)
	}

	evts := store.eventsFor(b.ID)
	if len(evts) != 1 {
		t.Fatalf("events = %d, want 1", len(evts))
	}
	e := evts[0]
	if e.EventType != domain.EventOverrideTransition {
		t.Errorf("event type = %s, want override_transition", e.EventType)
	}
	if e.Reason == nil || *e.Reason != "service was never performed" {
		t.Errorf("reason = %v, want recorded", e.Reason)
	}
	if e.ActorUserID == nil || *e.ActorUserID != actor {
		t.Errorf("actor = %v, want %s", e.ActorUserID, actor)
	}
}

func TestNonStrictModeRecordsWithoutBlocking(t *testing.T) {
	store := newFakeStore()
	log := logger.New("development")
	svc := New(store, events.NewInMemoryBus(log), nil, log, false)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusPendingCard, nil, nil, nil)

	updated, err := svc.Transition(ctx, b.ID, TransitionParams{ToStatus: domain.StatusCompleted, Source: "api"})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if domain.Status(updated.Status) != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", updated.Status)
	}
	if got := len(store.eventsFor(b.ID)); got != 1 {
		t.Fatalf("events = %d, want 1", got)
	}
}

func TestCancelEligibility(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	cancellable := seedBooking(t, store, domain.StatusScheduled, nil, nil, nil)
	if _, err := svc.Cancel(ctx, cancellable.ID, "customer_portal", "moving out", nil); err != nil {
		t.Fatalf("Cancel from scheduled: %v", err)
	}
	mustStatus(t, store, cancellable.ID, domain.StatusCancelled)

	started := seedBooking(t, store, domain.StatusInProgress, nil, nil, nil)
	_, err := svc.Cancel(ctx, started.ID, "customer_portal", "changed my mind", nil)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Cancel from in_progress: err = %v, want conflict", err)
	}
	mustStatus(t, store, started.ID, domain.StatusInProgress)
}

func TestCustomerStatsRecompute(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	customerID := uuid.New()

	seedBooking(t, store, domain.StatusCompleted, &customerID, i64(2000), nil)
	seedBooking(t, store, domain.StatusCharged, &customerID, i64(3000), nil)
	seedBooking(t, store, domain.StatusCancelled, &customerID, i64(1500), nil)
	pending := seedBooking(t, store, domain.StatusPendingCard, &customerID, i64(999), nil)

	if _, err := svc.Transition(ctx, pending.ID, TransitionParams{ToStatus: domain.StatusCardSaved, Source: "payment_webhook"}); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	stats := store.stats[customerID]
	if stats.totalBookings != 4 {
		t.Errorf("total bookings = %d, want 4", stats.totalBookings)
	}
	if stats.totalSpentCents != 5000 {
		t.Errorf("total spent = %d, want 5000", stats.totalSpentCents)
	}
}

func TestScheduleGatePromotesAndDemotes(t *testing.T) {
	svc, store, reminders := newTestService(t)
	ctx := context.Background()
	serviceDate := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	b := seedBooking(t, store, domain.StatusCardSaved, nil, nil, datePtr(serviceDate))

	cleanerID := uuid.New()
	a, err := svc.CreateAssignment(ctx, CreateAssignmentParams{
		BookingID: b.ID, CleanerID: &cleanerID, Source: "dispatch",
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusScheduled)
	if len(reminders.calls) != 1 || reminders.calls[0] != b.ID {
		t.Errorf("reminder calls = %v, want one for booking", reminders.calls)
	}

	if _, err := svc.CancelAssignment(ctx, a.ID, "dispatch"); err != nil {
		t.Fatalf("CancelAssignment: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusCardSaved)

	evts := store.eventsFor(b.ID)
	if len(evts) != 2 {
		t.Fatalf("events = %d, want 2", len(evts))
	}
	for _, e := range evts {
		if e.EventType != domain.EventTransition {
			t.Errorf("gate event type = %s, want transition", e.EventType)
		}
	}
}

func TestScheduleGateHoldsWithoutDate(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCardSaved, nil, nil, nil)

	cleanerID := uuid.New()
	if _, err := svc.CreateAssignment(ctx, CreateAssignmentParams{BookingID: b.ID, CleanerID: &cleanerID}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusCardSaved)
}

func TestRescheduleRecordsEventAndPromotes(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCardSaved, nil, nil, nil)
	seedAssignment(t, store, b.ID, domain.AssignmentAccepted)

	newDate := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Reschedule(ctx, b.ID, RescheduleParams{
		ServiceDate: newDate,
		Reason:      strPtr("customer requested"),
		Source:      "customer_portal",
	})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if updated.ServiceDate == nil || !updated.ServiceDate.Equal(newDate) {
		t.Fatalf("service date = %v, want %v", updated.ServiceDate, newDate)
	}
	mustStatus(t, store, b.ID, domain.StatusScheduled)

	evts := store.eventsFor(b.ID)
	if len(evts) != 2 {
		t.Fatalf("events = %d, want reschedule + gate transition", len(evts))
	}
	if evts[0].EventType != domain.EventRescheduled {
		t.Errorf("first event = %s, want rescheduled", evts[0].EventType)
	}
	if evts[0].ToServiceDate == nil || !evts[0].ToServiceDate.Equal(newDate) {
		t.Errorf("to service date = %v, want %v", evts[0].ToServiceDate, newDate)
	}
}

func TestRescheduleAuditsWindowChange(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusCardSaved, nil, nil, nil)

	oldDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.UpdateBookingSchedule(ctx, b.ID, oldDate, strPtr("09:00"), strPtr("11:00")); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	newDate := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.Reschedule(ctx, b.ID, RescheduleParams{
		ServiceDate:        newDate,
		ServiceWindowStart: strPtr("13:00"),
		ServiceWindowEnd:   strPtr("15:00"),
		Reason:             strPtr("crew availability"),
		Source:             "support_tools",
	})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	evts := store.eventsFor(b.ID)
	if len(evts) == 0 || evts[0].EventType != domain.EventRescheduled {
		t.Fatalf("events = %+v, want rescheduled first", evts)
	}
	meta := evts[0].Metadata
	if meta == nil {
		t.Fatal("reschedule event has no metadata")
	}
	want := map[string]string{
		"fromWindowStart": "09:00",
		"fromWindowEnd":   "11:00",
		"toWindowStart":   "13:00",
		"toWindowEnd":     "15:00",
	}
	for key, value := range want {
		got, ok := meta[key].(*string)
		if !ok || got == nil || *got != value {
			t.Errorf("metadata[%s] = %v, want %s", key, meta[key], value)
		}
	}
}

func TestRollupTwoAssignments(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusScheduled, nil, nil, datePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	a1 := seedAssignment(t, store, b.ID, domain.AssignmentConfirmed)
	a2 := seedAssignment(t, store, b.ID, domain.AssignmentConfirmed)

	updated, err := svc.ClockIn(ctx, a1.ID, "crew_app")
	if err != nil {
		t.Fatalf("ClockIn a1: %v", err)
	}
	if updated.ClockedInAt == nil {
		t.Error("clocked_in_at not stamped")
	}
	mustStatus(t, store, b.ID, domain.StatusInProgress)

	if _, err := svc.ClockOut(ctx, a1.ID, "crew_app"); err != nil {
		t.Fatalf("ClockOut a1: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusInProgress)

	if _, err := svc.ClockIn(ctx, a2.ID, "crew_app"); err != nil {
		t.Fatalf("ClockIn a2: %v", err)
	}
	out, err := svc.ClockOut(ctx, a2.ID, "crew_app")
	if err != nil {
		t.Fatalf("ClockOut a2: %v", err)
	}
	if out.ClockedOutAt == nil {
		t.Error("clocked_out_at not stamped")
	}
	mustStatus(t, store, b.ID, domain.StatusCompleted)
}

func TestRollupIgnoresInactiveAssignments(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusScheduled, nil, nil, nil)
	worker := seedAssignment(t, store, b.ID, domain.AssignmentConfirmed)
	seedAssignment(t, store, b.ID, domain.AssignmentCancelled)
	seedAssignment(t, store, b.ID, domain.AssignmentDeclined)

	if _, err := svc.ClockIn(ctx, worker.ID, "crew_app"); err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if _, err := svc.ClockOut(ctx, worker.ID, "crew_app"); err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusCompleted)
}

func TestClockOutChecklistGate(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusInProgress, nil, nil, nil)
	a := seedAssignment(t, store, b.ID, domain.AssignmentInProgress)

	item, err := svc.AddChecklistItem(ctx, a.ID, "Mop kitchen floor")
	if err != nil {
		t.Fatalf("AddChecklistItem: %v", err)
	}

	_, err = svc.ClockOut(ctx, a.ID, "crew_app")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("ClockOut with open checklist: err = %v, want conflict", err)
	}
	got, _ := store.GetAssignment(ctx, a.ID)
	if domain.AssignmentStatus(got.Status) != domain.AssignmentInProgress {
		t.Fatalf("assignment status = %s, want in_progress", got.Status)
	}

	if _, err := svc.SetChecklistItemCompleted(ctx, item.ID, true); err != nil {
		t.Fatalf("SetChecklistItemCompleted: %v", err)
	}
	if _, err := svc.ClockOut(ctx, a.ID, "crew_app"); err != nil {
		t.Fatalf("ClockOut after completing checklist: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusCompleted)
}

func TestClockOutRollsUpThroughInProgress(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusScheduled, nil, nil, nil)
	a := seedAssignment(t, store, b.ID, domain.AssignmentInProgress)

	if _, err := svc.ClockOut(ctx, a.ID, "crew_app"); err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	mustStatus(t, store, b.ID, domain.StatusCompleted)

	evts := store.eventsFor(b.ID)
	if len(evts) != 2 {
		t.Fatalf("events = %d, want scheduled->in_progress->completed pair", len(evts))
	}
	if *evts[0].ToStatus != string(domain.StatusInProgress) || *evts[1].ToStatus != string(domain.StatusCompleted) {
		t.Fatalf("rollup order = %s, %s", *evts[0].ToStatus, *evts[1].ToStatus)
	}
}

func TestAssignmentIllegalEdges(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusScheduled, nil, nil, nil)

	pending := seedAssignment(t, store, b.ID, domain.AssignmentPending)
	if _, err := svc.ClockIn(ctx, pending.ID, "crew_app"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("ClockIn on pending: err = %v, want conflict", err)
	}

	started := seedAssignment(t, store, b.ID, domain.AssignmentInProgress)
	if _, err := svc.CancelAssignment(ctx, started.ID, "dispatch"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("CancelAssignment on in_progress: err = %v, want conflict", err)
	}
}

func TestBackfillDryRunParity(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	withEvidence1 := seedBooking(t, store, domain.StatusLegacyFailed, nil, nil, nil)
	withEvidence2 := seedBooking(t, store, domain.StatusLegacyFailed, nil, nil, nil)
	noEvidence := seedBooking(t, store, domain.StatusLegacyFailed, nil, nil, nil)
	healthy := seedBooking(t, store, domain.StatusCharged, nil, nil, nil)
	store.failedPayments[withEvidence1.ID] = true
	store.failedPayments[withEvidence2.ID] = true

	dry, err := svc.BackfillLegacyFailed(ctx, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Scanned != 3 || dry.Converted != 2 || dry.MissingEvidence != 1 || len(dry.Failures) != 0 {
		t.Fatalf("dry run report = %+v", dry)
	}
	mustStatus(t, store, withEvidence1.ID, domain.StatusLegacyFailed)

	live, err := svc.BackfillLegacyFailed(ctx, false)
	if err != nil {
		t.Fatalf("live run: %v", err)
	}
	if live.Scanned != dry.Scanned || live.Converted != dry.Converted || live.MissingEvidence != dry.MissingEvidence {
		t.Fatalf("live report %+v does not match dry report %+v", live, dry)
	}

	mustStatus(t, store, withEvidence1.ID, domain.StatusPaymentFailed)
	mustStatus(t, store, withEvidence2.ID, domain.StatusPaymentFailed)
	mustStatus(t, store, noEvidence.ID, domain.StatusLegacyFailed)
	mustStatus(t, store, healthy.ID, domain.StatusCharged)

	evts := store.eventsFor(withEvidence1.ID)
	if len(evts) != 1 {
		t.Fatalf("events = %d, want 1", len(evts))
	}
	if evts[0].Source != "legacy_backfill" || evts[0].EventType != domain.EventTransition {
		t.Fatalf("backfill event = %+v", evts[0])
	}

	// Second live run finds nothing left to convert.
	again, err := svc.BackfillLegacyFailed(ctx, false)
	if err != nil {
		t.Fatalf("second live run: %v", err)
	}
	if again.Scanned != 1 || again.Converted != 0 || again.MissingEvidence != 1 {
		t.Fatalf("second live report = %+v", again)
	}
}

func TestCreateBookingRecordsCreation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	customerID := uuid.New()

	b, err := svc.CreateBooking(ctx, CreateBookingParams{
		CustomerID:  &customerID,
		AmountCents: i64(12000),
		Source:      "customer_portal",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if domain.Status(b.Status) != domain.StatusPendingCard {
		t.Fatalf("status = %s, want pending_card", b.Status)
	}

	evts := store.eventsFor(b.ID)
	if len(evts) != 1 || evts[0].EventType != domain.EventCreated {
		t.Fatalf("events = %+v, want single created event", evts)
	}
	if stats := store.stats[customerID]; stats.totalBookings != 1 || stats.totalSpentCents != 0 {
		t.Fatalf("stats = %+v, want 1 booking, 0 spent", stats)
	}
}

func TestConfirmCardPromotesWhenReady(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	b := seedBooking(t, store, domain.StatusPendingCard, nil, nil, datePtr(time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)))
	seedAssignment(t, store, b.ID, domain.AssignmentAccepted)

	updated, err := svc.ConfirmCard(ctx, b.ID, "payment_webhook", nil)
	if err != nil {
		t.Fatalf("ConfirmCard: %v", err)
	}
	if domain.Status(updated.Status) != domain.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", updated.Status)
	}

	evts := store.eventsFor(b.ID)
	if len(evts) != 2 {
		t.Fatalf("events = %d, want card_saved + scheduled", len(evts))
	}
}
