// Package alert implements the email side-channel fired on positive fraud
// predictions. Failures are a caller concern: senders return the error and
// callers log it without propagating (fire-and-forget).
package alert

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers one alert message.
type Sender interface {
	Send(subject, body string) error
}

// SMTPOptions holds the mail relay coordinates.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer sends alerts through an SMTP relay. A fresh connection is dialed
// per message; at the alert rate of this pipeline that is fine.
type Mailer struct {
	opts SMTPOptions
}

// Compile-time interface check.
var _ Sender = (*Mailer)(nil)

// NewMailer creates a Mailer for the given relay.
func NewMailer(opts SMTPOptions) *Mailer {
	return &Mailer{opts: opts}
}

// Send delivers one message.
func (m *Mailer) Send(subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.opts.From)
	msg.SetHeader("To", m.opts.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.opts.Host, m.opts.Port, m.opts.Username, m.opts.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

// NopSender discards alerts. Used when alerting is disabled.
type NopSender struct{}

// Compile-time interface check.
var _ Sender = NopSender{}

// Send discards the message.
func (NopSender) Send(string, string) error { return nil }
