// Package mailer sends account emails over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"quizai/config"
	"quizai/logger"
)

type Message struct {
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNotConfigured = errors.New("email is not configured")

type SMTPMailer struct {
	cfg      config.MailConfig
	log      *logger.Logger
	attempts uint
	dialer   *net.Dialer
}

func NewSMTP(cfg config.MailConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:      cfg,
		log:      log.With("component", "mailer"),
		attempts: 3,
		dialer:   &net.Dialer{Timeout: 15 * time.Second},
	}
}

// Send delivers msg, retrying transient failures a bounded number of times.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled() {
		return ErrNotConfigured
	}
	payload := m.build(msg)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, m.deliver(ctx, msg.To, payload)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(m.attempts),
		backoff.WithMaxElapsedTime(time.Minute),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.log.Warn("email delivery failed, retrying", "to", msg.To, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		m.log.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return err
	}
	m.log.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *SMTPMailer) build(msg Message) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: QuizAI <%s>\r\n", m.cfg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, payload []byte) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var (
		conn net.Conn
		err  error
	)
	if m.cfg.Secure {
		td := &tls.Dialer{NetDialer: m.dialer, Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = m.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if !m.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return err
			}
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return backoff.Permanent(err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return backoff.Permanent(err)
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// LogMailer writes messages to the log instead of sending them. It is used
// when SMTP is not configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mailer")}
}

// Send logs the recipient and subject. The body carries one-time codes, so
// it is only logged by a development logger.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if m.log.Development() {
		m.log.Warn("SMTP not configured, email logged instead of sent",
			"to", msg.To, "subject", msg.Subject, "body", msg.Text)
		return nil
	}
	m.log.Warn("SMTP not configured, email dropped", "to", msg.To, "subject", msg.Subject)
	return nil
}

// New picks the SMTP mailer when configured and the log mailer otherwise.
func New(cfg config.MailConfig, log *logger.Logger) Mailer {
	if cfg.Enabled() {
		return NewSMTP(cfg, log)
	}
	return NewLog(log)
}
