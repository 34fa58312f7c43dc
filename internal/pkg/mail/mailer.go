package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/foxauth/internal/pkg/config"
)

type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	cfg config.MailConfig
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	if cfg.Sender == "" {
		cfg.Sender = "no-reply@localhost"
		log.Warnf("SMTP_SENDER not set, using default sender: %s", cfg.Sender)
	}
	return &SMTPMailer{cfg: cfg}
}

// Send delivers msg. net/smtp has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{msg.To}, buildMessage(m.cfg.Sender, msg))
	if err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	log.Infof("Email sent to %s via %s", msg.To, addr)
	return nil
}

func buildMessage(sender string, msg Message) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			msg.HTMLBody,
	)
}

// LogMailer writes messages to the log instead of sending them. Used in
// development when SMTP_HOST is empty.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Infof("[Mail] to=%s subject=%q (%d bytes, not sent)", msg.To, msg.Subject, len(msg.HTMLBody))
	return nil
}
