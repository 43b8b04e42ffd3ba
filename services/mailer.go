package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Email is a rendered message ready to send
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// MailBackend delivers rendered emails
type MailBackend interface {
	Send(ctx context.Context, email Email) error
	// Simulated reports whether the backend only logs instead of delivering
	Simulated() bool
}

// EmailDialer is an interface for sending email messages
type EmailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPBackend sends emails over SMTP without queueing
type SMTPBackend struct {
	Dialer EmailDialer
}

// NewSMTPBackend creates an SMTP backend
func NewSMTPBackend(host string, port int, username, password string) *SMTPBackend {
	return &SMTPBackend{Dialer: gomail.NewDialer(host, port, username, password)}
}

// Send is an implementation of MailBackend.Send
func (b *SMTPBackend) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", email.From)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}

	switch {
	case email.HTML != "" && email.Text != "":
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	case email.HTML != "":
		m.SetBody("text/html", email.HTML)
	default:
		m.SetBody("text/plain", email.Text)
	}

	if err := b.Dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "dialing and sending email")
	}
	return nil
}

// Simulated is false for SMTP
func (b *SMTPBackend) Simulated() bool {
	return false
}

// LogBackend logs emails instead of sending them. It is used when SMTP is not configured.
type LogBackend struct {
	Logger zerolog.Logger
}

// Send is an implementation of MailBackend.Send
func (b *LogBackend) Send(_ context.Context, email Email) error {
	b.Logger.Info().
		Str("from", email.From).
		Strs("to", email.To).
		Str("subject", email.Subject).
		Str("body", email.Text).
		Msg("email not sent, using log backend")
	return nil
}

// Simulated is true for the log backend
func (b *LogBackend) Simulated() bool {
	return true
}
