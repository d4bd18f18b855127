// Package mailer delivers intake mail through SMTP, Amazon SES, or the log.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Message is the structured mail record handed to a transport
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	ReplyTo string
}

// Transport sends a message and returns the provider's message identifier,
// which may be empty when the provider does not report one.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
	Name() string
}

var (
	ErrNoRecipient = errors.New("mailer: message has no recipient")
	ErrNoSender    = errors.New("mailer: no sender address configured")
)

// Transport kinds accepted by New
const (
	KindSMTP = "smtp"
	KindSES  = "ses"
	KindLog  = "log"
)

// Config selects and configures a transport
type Config struct {
	Kind     string
	FromName string
	SMTP     SMTPConfig
	SES      SESConfig
}

// New builds the transport named by cfg.Kind
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Transport, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindSMTP, "":
		if cfg.SMTP.FromName == "" {
			cfg.SMTP.FromName = cfg.FromName
		}
		return NewSMTPTransport(cfg.SMTP, logger)
	case KindSES:
		if cfg.SES.FromName == "" {
			cfg.SES.FromName = cfg.FromName
		}
		return NewSESTransport(ctx, cfg.SES, logger)
	case KindLog:
		return NewLogTransport(logger), nil
	}
	return nil, fmt.Errorf("mailer: unknown transport %q", cfg.Kind)
}

// FormatAddress renders "Name <addr>" with any encoding the display name needs
func FormatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return (&mail.Address{Name: name, Address: addr}).String()
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(msg.From) == "" {
		return ErrNoSender
	}
	return nil
}
