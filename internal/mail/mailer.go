package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message describes an outbound email.
type Message struct {
	Subject string
	Body    string
	From    string
	To      string
}

// Mailer delivers email to downstream systems. Implementations must report
// delivery failure through the returned error; silently dropping mail is
// not an option for callers handing out credentials.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
}

// NewSMTPMailer configures an SMTP-backed mailer. Auth is skipped when
// username is empty (e.g. a local relay).
func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{addr: fmt.Sprintf("%s:%d", host, port), auth: auth}
}

// Send submits the message to the relay.
func (m *SMTPMailer) Send(_ context.Context, message Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", message.From)
	fmt.Fprintf(&b, "To: %s\r\n", message.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", message.Subject)
	b.WriteString("\r\n")
	b.WriteString(message.Body)
	b.WriteString("\r\n")

	if err := smtp.SendMail(m.addr, m.auth, message.From, []string{message.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", message.To, err)
	}
	return nil
}

// LoggerMailer is a stub implementation that writes outbound mail to the
// logger. Used in development when no SMTP relay is configured.
type LoggerMailer struct {
	logger *slog.Logger
}

// NewLoggerMailer constructs a logging mailer stub.
func NewLoggerMailer(logger *slog.Logger) *LoggerMailer {
	return &LoggerMailer{logger: logger}
}

// Send writes the message to the structured logger.
func (m *LoggerMailer) Send(_ context.Context, message Message) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("outbound mail", "to", message.To, "subject", message.Subject, "body", message.Body)
	return nil
}
