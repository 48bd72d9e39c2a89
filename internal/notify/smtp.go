package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"annies-bakery/internal/config"

	"github.com/rs/zerolog"
)

// SMTPSender delivers messages over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	cfg     config.NotifyConfig
	timeout time.Duration
	logger  zerolog.Logger
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg config.NotifyConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:     cfg,
		timeout: 10 * time.Second,
		logger:  logger.With().Str("component", "notify").Str("driver", "smtp").Logger(),
	}
}

// Configured reports whether host, port, user and password are all set.
func (s *SMTPSender) Configured() bool {
	return s.cfg.SMTPHost != "" && s.cfg.SMTPPort > 0 && s.cfg.SMTPUser != "" && s.cfg.SMTPPassword != ""
}

// Notify implements Sender. Delivery is skipped when SMTP is not fully configured.
func (s *SMTPSender) Notify(ctx context.Context, msg Message) bool {
	if !s.Configured() {
		s.logger.Warn().Str("kind", msg.Kind).Msg("SMTP not configured, skipping email")
		return false
	}

	to := recipient(msg.To, s.cfg.AdminEmail)
	if to == "" {
		s.logger.Warn().Str("kind", msg.Kind).Msg("no recipient for notification")
		return false
	}

	if err := s.send(ctx, to, msg); err != nil {
		s.logger.Error().Err(err).Str("kind", msg.Kind).Str("to", to).Msg("failed to send email")
		return false
	}

	s.logger.Info().Str("kind", msg.Kind).Str("to", to).Msg("email sent")
	return true
}

func (s *SMTPSender) send(ctx context.Context, to string, msg Message) error {
	from, err := mail.ParseAddress(s.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}
	if err := client.Auth(smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}
	if err := client.Mail(from.Address); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(s.cfg.From, to, msg)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// buildMessage renders a plain-text RFC 5322 message.
func buildMessage(from, to string, msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mimeHeader(msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func mimeHeader(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}
