// Package notify sends transactional email for orders.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/zastore/pkg/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is one rendered email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers a message to the email provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipient = errors.New("notify: recipient missing")

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errNoRecipient
	}

	email := gomail.NewMessage()
	email.SetHeader("From", msg.From)
	email.SetHeader("To", msg.To)
	email.SetHeader("Subject", msg.Subject)
	email.SetBody("text/html", msg.HTMLBody)

	if err := m.dialer.DialAndSend(email); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer only logs messages. Used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mail")}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return errNoRecipient
	}
	m.logger.Info("Email not sent, SMTP disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// NewMailer picks SMTP when a host is configured.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}
