package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"cleanops_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender from email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendBookingScheduledEmail(ctx context.Context, toEmail, customerName, serviceDate string) error {
	content, err := renderEmailTemplate("booking_scheduled.html", bookingScheduledEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectBookingScheduled,
			Heading: "Your cleaning is scheduled",
		},
		CustomerName: customerName,
		ServiceDate:  serviceDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectBookingScheduled, content)
}

func (s *SMTPSender) SendBookingCompletedEmail(ctx context.Context, toEmail, customerName string) error {
	content, err := renderEmailTemplate("booking_completed.html", bookingCompletedEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectBookingCompleted,
			Heading: "All done!",
		},
		CustomerName: customerName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectBookingCompleted, content)
}

func (s *SMTPSender) SendServiceReminderEmail(ctx context.Context, toEmail, customerName, serviceDate string) error {
	content, err := renderEmailTemplate("service_reminder.html", serviceReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectServiceReminder,
			Heading: "See you tomorrow",
		},
		CustomerName: customerName,
		ServiceDate:  serviceDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectServiceReminder, content)
}

func (s *SMTPSender) SendIntakeReceivedEmail(ctx context.Context, toEmail, customerName string) error {
	content, err := renderEmailTemplate("intake_received.html", intakeReceivedEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectIntakeReceived,
			Heading: "Request received",
		},
		CustomerName: customerName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectIntakeReceived, content)
}
