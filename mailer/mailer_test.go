package mailer

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"quizai/config"
	"quizai/logger"
)

func TestPasswordResetEmailCarriesFrontendLink(t *testing.T) {
	msg := PasswordResetEmail("a@x.com", "https://quiz.example/", "AB12CD", time.Hour)
	if !strings.Contains(msg.Text, "https://quiz.example/change-password/AB12CD") {
		t.Fatalf("reset link missing: %s", msg.Text)
	}
	if !strings.Contains(msg.Text, "valid for 1 hour") {
		t.Fatalf("ttl missing: %s", msg.Text)
	}
}

func TestVerificationEmailCarriesCode(t *testing.T) {
	msg := VerificationEmail("a@x.com", "123456", 24*time.Hour)
	if msg.To != "a@x.com" || !strings.Contains(msg.Text, "Verification Code: 123456") {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.Text, "24 hours") {
		t.Fatalf("ttl missing: %s", msg.Text)
	}
}

func TestSMTPMailerRefusesWhenUnconfigured(t *testing.T) {
	m := NewSMTP(config.MailConfig{}, logger.Nop())
	if err := m.Send(context.Background(), Message{To: "a@x.com"}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewFallsBackToLogMailer(t *testing.T) {
	if _, ok := New(config.MailConfig{}, logger.Nop()).(*LogMailer); !ok {
		t.Fatalf("expected log mailer without SMTP host")
	}
	if _, ok := New(config.MailConfig{Host: "smtp.example", Port: 587, From: "no-reply@example"}, logger.Nop()).(*SMTPMailer); !ok {
		t.Fatalf("expected smtp mailer when configured")
	}
}

func TestBuildUsesCRLF(t *testing.T) {
	m := NewSMTP(config.MailConfig{Host: "smtp.example", Port: 587, From: "no-reply@example"}, logger.Nop())
	raw := string(m.build(Message{To: "a@x.com", Subject: "Hi", Text: "line1\nline2"}))
	if !strings.Contains(raw, "Subject: Hi\r\n") || !strings.Contains(raw, "line1\r\nline2") {
		t.Fatalf("unexpected payload %q", raw)
	}
}

func TestLogMailerKeepsBodyOutOfProductionLogs(t *testing.T) {
	msg := VerificationEmail("a@x.com", "654321", time.Hour)
	for _, dev := range []bool{false, true} {
		core, logs := observer.New(zapcore.DebugLevel)
		m := NewLog(logger.Wrap(zap.New(core), dev))
		if err := m.Send(context.Background(), msg); err != nil {
			t.Fatalf("send: %v", err)
		}
		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("expected one log entry, got %d", len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["to"] != "a@x.com" || fields["subject"] != msg.Subject {
			t.Fatalf("recipient or subject missing: %v", fields)
		}
		_, hasBody := fields["body"]
		if hasBody != dev {
			t.Fatalf("dev=%v: body logged=%v", dev, hasBody)
		}
	}
}
