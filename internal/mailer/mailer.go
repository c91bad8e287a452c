// Package mailer sends run-completion notifications over SMTP. No
// repo in the example pack imports a mail client, so this is one of
// the few ambient concerns built directly on the standard library
// rather than a third-party package: net/smtp already covers the
// narrow "send one plaintext message" requirement without pulling in
// a dependency nothing else in the pipeline would otherwise exercise.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a single notification email.
type Message struct {
	Subject string
	Body    string
}

// Mailer sends a Message. The Orchestrator depends only on this
// interface, so tests and environments without SMTP access can supply
// a no-op implementation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the connection details for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// SMTPMailer sends mail through a configured SMTP relay using
// PLAIN auth, the way most deployment environments expose outbound
// mail (a local relay or a provider's SMTP endpoint).
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer returns a Mailer backed by cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send implements Mailer. ctx is accepted for interface symmetry with
// the rest of the pipeline's blocking calls; net/smtp.SendMail has no
// context-aware variant, so cancellation isn't honored mid-send.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(m.cfg.To) == 0 {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := fmt.Sprintf("Subject: %s\r\nFrom: %s\r\nTo: %s\r\n\r\n%s",
		msg.Subject, m.cfg.From, strings.Join(m.cfg.To, ", "), msg.Body)

	if err := smtp.SendMail(addr, auth, m.cfg.From, m.cfg.To, []byte(body)); err != nil {
		return fmt.Errorf("mailer: sending via %s: %w", addr, err)
	}
	return nil
}

// NopMailer discards every message. orchestrator.New does not install
// it (or any mailer): a nil Orchestrator.Mailer already skips the
// completion notification.
type NopMailer struct{}

// Send implements Mailer by doing nothing.
func (NopMailer) Send(ctx context.Context, msg Message) error { return nil }
