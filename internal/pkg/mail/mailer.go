package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Chirper/internal/pkg/env"
)

// Message is a single outgoing html email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// NewFromEnv returns an SMTP mailer when SMTP_HOST is set and a log mailer otherwise.
func NewFromEnv() Mailer {
	host := env.GetEnv("SMTP_HOST", "")
	if host == "" {
		log.Warnw("SMTP_HOST not set, emails are written to the log")
		return LogMailer{}
	}
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = "no-reply@localhost"
		log.Warnw("SMTP_SENDER not set, using default sender", "sender", sender)
	}
	return &SMTPMailer{
		Host:     host,
		Port:     env.GetEnv("SMTP_PORT", "25"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   sender,
	}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	body := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.Sender, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			msg.Body,
	)

	if err := smtp.SendMail(addr, auth, m.Sender, []string{msg.To}, body); err != nil {
		log.Errorw("smtp send failed", "to", msg.To, "error", err)
		return err
	}
	log.Infow("email sent", "to", msg.To, "addr", addr)
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Infow("email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
