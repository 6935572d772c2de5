package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/evcraddock/rental-bridge/internal/email"
)

// ErrNotDelivered is returned by a Mailer that accepted a message without
// it leaving the process.
var ErrNotDelivered = errors.New("mail logged, not delivered")

// Mailer dispatches an email.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// MailerFunc adapts a function to a Mailer.
type MailerFunc func(ctx context.Context, msg email.Message) error

// Send calls f.
func (f MailerFunc) Send(ctx context.Context, msg email.Message) error { return f(ctx, msg) }

// SMTPMailer sends mail directly through an SMTP relay.
type SMTPMailer struct {
	Config email.SMTPConfig
}

// Send delivers msg over SMTP.
func (m SMTPMailer) Send(_ context.Context, msg email.Message) error {
	return email.Send(m.Config, msg)
}

// LogMailer records outgoing mail in the log instead of sending it.
type LogMailer struct{}

// Send logs msg and returns ErrNotDelivered.
func (LogMailer) Send(ctx context.Context, msg email.Message) error {
	slog.InfoContext(ctx, "email",
		"to", strings.Join(msg.To, ","),
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
	)
	slog.DebugContext(ctx, "email body", "body", msg.Body)
	return ErrNotDelivered
}
