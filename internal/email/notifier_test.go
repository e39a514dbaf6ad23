package email

import (
	"context"
	"testing"
	"time"

	"cleanops_backend/internal/events"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
)

type sentMail struct {
	kind string
	to   string
	name string
	date string
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) SendBookingScheduledEmail(_ context.Context, to, name, date string) error {
	f.sent = append(f.sent, sentMail{kind: "scheduled", to: to, name: name, date: date})
	return nil
}

func (f *fakeSender) SendBookingCompletedEmail(_ context.Context, to, name string) error {
	f.sent = append(f.sent, sentMail{kind: "completed", to: to, name: name})
	return nil
}

func (f *fakeSender) SendServiceReminderEmail(_ context.Context, to, name, date string) error {
	f.sent = append(f.sent, sentMail{kind: "reminder", to: to, name: name, date: date})
	return nil
}

func (f *fakeSender) SendIntakeReceivedEmail(_ context.Context, to, name string) error {
	f.sent = append(f.sent, sentMail{kind: "intake", to: to, name: name})
	return nil
}

type fakeDirectory struct {
	contacts map[uuid.UUID]CustomerContact
}

func (f *fakeDirectory) GetContact(_ context.Context, id uuid.UUID) (CustomerContact, error) {
	return f.contacts[id], nil
}

func strPtr(s string) *string { return &s }

func newTestNotifier() (*Notifier, *fakeSender, *fakeDirectory) {
	sender := &fakeSender{}
	dir := &fakeDirectory{contacts: make(map[uuid.UUID]CustomerContact)}
	return NewNotifier(sender, dir, logger.New("test")), sender, dir
}

func TestNotifierSendsScheduledEmail(t *testing.T) {
	notifier, sender, dir := newTestNotifier()
	customerID := uuid.New()
	dir.contacts[customerID] = CustomerContact{Name: strPtr("Dana"), Email: strPtr("dana@example.com")}
	serviceDate := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	err := notifier.onBookingStatusChanged(context.Background(), events.BookingStatusChanged{
		BaseEvent:   events.NewBaseEvent(),
		BookingID:   uuid.New(),
		CustomerID:  &customerID,
		FromStatus:  "card_saved",
		ToStatus:    "scheduled",
		ServiceDate: &serviceDate,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.kind != "scheduled" || got.to != "dana@example.com" || got.name != "Dana" {
		t.Errorf("sent = %+v", got)
	}
	if got.date != "Friday, April 10, 2026" {
		t.Errorf("date = %q", got.date)
	}
}

func TestNotifierSkipsCustomerWithoutEmail(t *testing.T) {
	notifier, sender, dir := newTestNotifier()
	customerID := uuid.New()
	dir.contacts[customerID] = CustomerContact{Name: strPtr("Dana")}

	err := notifier.onBookingStatusChanged(context.Background(), events.BookingStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		BookingID:  uuid.New(),
		CustomerID: &customerID,
		FromStatus: "in_progress",
		ToStatus:   "completed",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0", len(sender.sent))
	}
}

func TestNotifierIgnoresOtherTransitions(t *testing.T) {
	notifier, sender, dir := newTestNotifier()
	customerID := uuid.New()
	dir.contacts[customerID] = CustomerContact{Email: strPtr("dana@example.com")}

	for _, to := range []string{"card_saved", "in_progress", "charged", "cancelled", "payment_failed"} {
		err := notifier.onBookingStatusChanged(context.Background(), events.BookingStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			BookingID:  uuid.New(),
			CustomerID: &customerID,
			ToStatus:   to,
		})
		if err != nil {
			t.Fatalf("handle %s: %v", to, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0", len(sender.sent))
	}
}

func TestNotifierSendsReminderWithFallbackName(t *testing.T) {
	notifier, sender, dir := newTestNotifier()
	customerID := uuid.New()
	dir.contacts[customerID] = CustomerContact{Email: strPtr("dana@example.com")}
	serviceDate := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	err := notifier.onServiceReminderDue(context.Background(), events.ServiceReminderDue{
		BaseEvent:   events.NewBaseEvent(),
		BookingID:   uuid.New(),
		CustomerID:  &customerID,
		ServiceDate: &serviceDate,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].kind != "reminder" || sender.sent[0].name != "there" {
		t.Errorf("sent = %+v", sender.sent[0])
	}
}
