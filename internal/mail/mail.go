// Package mail delivers the password-reset and due-date reminder emails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/isdelr/smarttodo-be/internal/config"
	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

// Sender is the outbound mail collaborator.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
	SendDueReminder(ctx context.Context, to, username, taskTitle string, due time.Time) error
}

// New returns an SMTP sender when a host is configured, otherwise a sender
// that only logs the message.
func New(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, outgoing mail will only be logged")
		return LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

var resetHTML = template.Must(template.New("reset").Parse(`<p>You requested a password reset.</p>
<p>Click the link below to reset your password:</p>
<a href="{{.Link}}">{{.Link}}</a>
<p>If you did not request this, please ignore this email.</p>
`))

var reminderHTML = template.Must(template.New("reminder").Parse(`<p>Hi {{.Username}},</p>
<p>Your task <strong>{{.Title}}</strong> is due {{.Due}}.</p>
`))

// SMTPSender sends mail through an authenticated SMTP relay.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// SendPasswordReset mails the reset link.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	var html bytes.Buffer
	if err := resetHTML.Execute(&html, struct{ Link string }{resetLink}); err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	text := "You requested a password reset. Click this link to reset your password: " + resetLink
	return s.send(ctx, to, "Password Reset Request", text, html.String())
}

// SendDueReminder mails a reminder for a task that is about to be due.
func (s *SMTPSender) SendDueReminder(ctx context.Context, to, username, taskTitle string, due time.Time) error {
	dueStr := due.Format("Mon Jan 2 15:04 MST")
	var html bytes.Buffer
	data := struct{ Username, Title, Due string }{username, taskTitle, dueStr}
	if err := reminderHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render reminder email: %w", err)
	}
	text := fmt.Sprintf("Hi %s, your task %q is due %s.", username, taskTitle, dueStr)
	return s.send(ctx, to, "Task due soon: "+taskTitle, text, html.String())
}

func (s *SMTPSender) send(ctx context.Context, to, subject, text, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, html)

	opts := []gomail.Option{gomail.WithPort(s.cfg.Port), gomail.WithTLSPortPolicy(gomail.TLSMandatory)}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct{}

// SendPasswordReset logs the reset link.
func (LogSender) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	log.Info().Str("to", to).Str("reset_link", resetLink).Msg("Password reset email (not sent, SMTP disabled)")
	return nil
}

// SendDueReminder logs the reminder.
func (LogSender) SendDueReminder(ctx context.Context, to, username, taskTitle string, due time.Time) error {
	log.Info().Str("to", to).Str("task", taskTitle).Time("due", due).Msg("Due reminder email (not sent, SMTP disabled)")
	return nil
}
