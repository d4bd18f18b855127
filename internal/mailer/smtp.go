package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImplicitTLSPort is the SMTPS port; any other port upgrades with STARTTLS when offered
const ImplicitTLSPort = 465

const defaultSMTPTimeout = 30 * time.Second

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username
	From     string
	FromName string
	Timeout  time.Duration
}

// SMTPTransport sends mail with PLAIN auth over implicit TLS or STARTTLS
type SMTPTransport struct {
	cfg    SMTPConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSMTPTransport validates cfg and returns a transport. No connection is made until Send.
func NewSMTPTransport(cfg SMTPConfig, logger *zap.Logger) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mailer: SMTP host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("mailer: invalid SMTP port %d", cfg.Port)
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	logger.Info("SMTP transport configured",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Bool("implicit_tls", cfg.Port == ImplicitTLSPort),
	)
	return &SMTPTransport{cfg: cfg, logger: logger, now: time.Now}, nil
}

func (t *SMTPTransport) Name() string { return KindSMTP }

// Send delivers msg and returns the Message-ID header it generated
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	if msg.From == "" && t.cfg.From != "" {
		msg.From = FormatAddress(t.cfg.FromName, t.cfg.From)
	}
	if err := validate(msg); err != nil {
		return "", err
	}

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", fmt.Errorf("mailer: invalid from address %q: %w", msg.From, err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return "", fmt.Errorf("mailer: invalid recipient %q: %w", msg.To, err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.cfg.Host)
	raw := compose(msg, messageID, t.now())

	t.logger.Debug("sending mail over SMTP",
		zap.String("to", to.Address),
		zap.String("subject", msg.Subject),
		zap.Int("bytes", len(raw)),
	)

	client, err := t.connect(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := t.authenticate(client); err != nil {
		return "", err
	}
	if err := client.Mail(from.Address); err != nil {
		return "", fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to.Address); err != nil {
		return "", fmt.Errorf("smtp RCPT TO %s: %w", to.Address, err)
	}
	w, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return "", fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("smtp end of data: %w", err)
	}
	if err := client.Quit(); err != nil {
		t.logger.Debug("smtp QUIT failed after delivery", zap.Error(err))
	}

	t.logger.Info("mail sent", zap.String("message_id", messageID), zap.String("to", to.Address))
	return messageID, nil
}

func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	dialer := &net.Dialer{Timeout: t.cfg.Timeout}
	tlsConfig := &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}

	var (
		conn net.Conn
		err  error
	)
	if t.cfg.Port == ImplicitTLSPort {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.cfg.Timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	if t.cfg.Port != ImplicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("smtp STARTTLS: %w", err)
			}
		}
	}
	return client, nil
}

func (t *SMTPTransport) authenticate(client *smtp.Client) error {
	if t.cfg.Username == "" {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		t.logger.Warn("SMTP server does not offer AUTH, sending unauthenticated", zap.String("host", t.cfg.Host))
		return nil
	}
	auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	return nil
}

// compose renders msg as an RFC 5322 message with a quoted-printable UTF-8 body
func compose(msg Message, messageID string, date time.Time) []byte {
	var b bytes.Buffer
	header := func(key, value string) {
		fmt.Fprintf(&b, "%s: %s\r\n", key, value)
	}

	header("From", msg.From)
	header("To", msg.To)
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", messageID)
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	header("Content-Transfer-Encoding", "quoted-printable")
	b.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&b)
	qp.Write([]byte(strings.ReplaceAll(msg.Text, "\r\n", "\n")))
	qp.Close()
	b.WriteString("\r\n")
	return b.Bytes()
}
