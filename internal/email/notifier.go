package email

import (
	"context"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/events"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
)

// CustomerContact is the minimal contact info the notifier needs.
type CustomerContact struct {
	Name  *string
	Email *string
}

// CustomerDirectory resolves a customer's contact details.
type CustomerDirectory interface {
	GetContact(ctx context.Context, customerID uuid.UUID) (CustomerContact, error)
}

const serviceDateLayout = "Monday, January 2, 2006"

// Notifier subscribes to domain events and sends the matching customer
// emails. Send failures are logged; notifications are best effort.
type Notifier struct {
	sender    Sender
	customers CustomerDirectory
	log       *logger.Logger
}

// NewNotifier creates an event-driven email notifier.
func NewNotifier(sender Sender, customers CustomerDirectory, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, customers: customers, log: log}
}

// Register subscribes the notifier to the event bus.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.BookingStatusChanged{}.EventName(), events.HandlerFunc(n.onBookingStatusChanged))
	bus.Subscribe(events.ServiceReminderDue{}.EventName(), events.HandlerFunc(n.onServiceReminderDue))
	bus.Subscribe(events.IntakeRequestCreated{}.EventName(), events.HandlerFunc(n.onIntakeRequestCreated))
}

func (n *Notifier) onBookingStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.BookingStatusChanged)
	if !ok {
		return nil
	}

	switch domain.Status(e.ToStatus) {
	case domain.StatusScheduled:
		name, to, ok := n.contact(ctx, e.CustomerID)
		if !ok {
			return nil
		}
		serviceDate := ""
		if e.ServiceDate != nil {
			serviceDate = e.ServiceDate.Format(serviceDateLayout)
		}
		return n.sender.SendBookingScheduledEmail(ctx, to, name, serviceDate)

	case domain.StatusCompleted:
		name, to, ok := n.contact(ctx, e.CustomerID)
		if !ok {
			return nil
		}
		return n.sender.SendBookingCompletedEmail(ctx, to, name)
	}
	return nil
}

func (n *Notifier) onServiceReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ServiceReminderDue)
	if !ok {
		return nil
	}
	name, to, ok := n.contact(ctx, e.CustomerID)
	if !ok {
		return nil
	}
	serviceDate := ""
	if e.ServiceDate != nil {
		serviceDate = e.ServiceDate.Format(serviceDateLayout)
	}
	return n.sender.SendServiceReminderEmail(ctx, to, name, serviceDate)
}

func (n *Notifier) onIntakeRequestCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.IntakeRequestCreated)
	if !ok {
		return nil
	}
	name, to, ok := n.contact(ctx, e.CustomerID)
	if !ok {
		return nil
	}
	return n.sender.SendIntakeReceivedEmail(ctx, to, name)
}

// contact resolves the customer's name and email. Events without a customer,
// or customers without an email address, produce no notification.
func (n *Notifier) contact(ctx context.Context, customerID *uuid.UUID) (name, toEmail string, ok bool) {
	if customerID == nil {
		return "", "", false
	}
	c, err := n.customers.GetContact(ctx, *customerID)
	if err != nil {
		n.log.Warn("notifier contact lookup failed", "customerId", *customerID, "error", err)
		return "", "", false
	}
	if c.Email == nil || *c.Email == "" {
		return "", "", false
	}
	name = "there"
	if c.Name != nil && *c.Name != "" {
		name = *c.Name
	}
	return name, *c.Email, true
}
