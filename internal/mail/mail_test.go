package mail

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/smarttodo-be/internal/config"
)

func TestNewFallsBackToLogSender(t *testing.T) {
	sender := New(config.SMTPConfig{})
	if _, ok := sender.(LogSender); !ok {
		t.Fatalf("expected LogSender without SMTP host, got %T", sender)
	}

	ctx := context.Background()
	if err := sender.SendPasswordReset(ctx, "ann@example.com", "http://localhost/reset-password/tok"); err != nil {
		t.Fatalf("log sender reset: %v", err)
	}
	if err := sender.SendDueReminder(ctx, "ann@example.com", "ann", "Pay rent", time.Now()); err != nil {
		t.Fatalf("log sender reminder: %v", err)
	}
}

func TestNewUsesSMTPWhenConfigured(t *testing.T) {
	sender := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "todo@example.com"})
	if _, ok := sender.(*SMTPSender); !ok {
		t.Fatalf("expected *SMTPSender, got %T", sender)
	}
}
