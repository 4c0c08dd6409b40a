// Package mail delivers the maintenance report by SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/report"
	"github.com/rs/zerolog"
)

// Service defines the interface for mailing the maintenance report.
type Service interface {
	SendReport(ctx context.Context, cfg models.MailConfig, to string, r *models.Report) (*models.NotificationResult, error)
}

// SendFunc delivers a prepared message. It exists so tests can capture mail.
type SendFunc func(ctx context.Context, cfg models.MailConfig, from, to, msg string) error

// Impl implements Service.
type Impl struct {
	send   SendFunc
	logger zerolog.Logger
}

// New creates a new mail service that talks SMTP.
func New(logger zerolog.Logger) *Impl {
	return NewWithSender(logger, sendSMTP)
}

// NewWithSender creates a new mail service with a custom sender (for testing).
func NewWithSender(logger zerolog.Logger, send SendFunc) *Impl {
	return &Impl{
		send:   send,
		logger: logger,
	}
}

// SendReport mails r to the given recipient. Delivery failures are returned in the result.
func (s *Impl) SendReport(ctx context.Context, cfg models.MailConfig, to string, r *models.Report) (*models.NotificationResult, error) {
	result := &models.NotificationResult{}

	from := cfg.From
	if from == "" {
		from = "mysql@" + r.Host
	}

	s.logger.Info().
		Str("to", to).
		Str("smtp_host", cfg.Host).
		Bool("success", r.Success()).
		Msg("sending maintenance report")

	msg := BuildMessage(from, to, report.Subject(r), report.Body(r))
	if err := s.send(ctx, cfg, from, to, msg); err != nil {
		result.Error = err
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}

	result.MessageSent = true
	s.logger.Info().Msg("maintenance report mailed")
	return result, nil
}

// BuildMessage constructs a plain text message with CRLF line endings.
func BuildMessage(from, to, subject, body string) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return msg.String()
}

func sendSMTP(ctx context.Context, cfg models.MailConfig, from, to, msg string) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if cfg.Username != "" && cfg.Password != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return client.Quit()
}

var _ Service = (*Impl)(nil)
