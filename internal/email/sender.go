// Package email sends customer notifications for booking lifecycle events.
// It subscribes to the event bus so business services never send mail inline.
package email

import "context"

// Sender delivers customer-facing notification emails.
type Sender interface {
	SendBookingScheduledEmail(ctx context.Context, toEmail, customerName, serviceDate string) error
	SendBookingCompletedEmail(ctx context.Context, toEmail, customerName string) error
	SendServiceReminderEmail(ctx context.Context, toEmail, customerName, serviceDate string) error
	SendIntakeReceivedEmail(ctx context.Context, toEmail, customerName string) error
}

// NoopSender satisfies Sender without delivering anything. Used when email
// is disabled in configuration.
type NoopSender struct{}

func (NoopSender) SendBookingScheduledEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendBookingCompletedEmail(context.Context, string, string) error {
	return nil
}

func (NoopSender) SendServiceReminderEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendIntakeReceivedEmail(context.Context, string, string) error {
	return nil
}
