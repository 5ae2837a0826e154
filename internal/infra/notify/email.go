// Package notify sends booking confirmation mails over SMTP.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"villarent/internal/app/policies"
)

var ErrNotConfigured = errors.New("notify: email service not configured")

type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	AdminEmail string
}

// SMTPNotifier renders the Indonesian confirmation templates and sends them.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (n *SMTPNotifier) SendGuestConfirmation(ctx context.Context, s policies.BookingSummary) error {
	subject := "Konfirmasi Booking Villa - " + s.Reference
	return n.deliver(ctx, s.GuestEmail, subject, guestTemplate, s)
}

func (n *SMTPNotifier) SendAdminAlert(ctx context.Context, s policies.BookingSummary) error {
	if strings.TrimSpace(n.cfg.AdminEmail) == "" {
		return ErrNotConfigured
	}
	subject := "Booking Baru - " + s.Reference + " - " + s.VillaName
	return n.deliver(ctx, n.cfg.AdminEmail, subject, adminTemplate, s)
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject string, tmpl *template.Template, s policies.BookingSummary) error {
	if n.cfg.Host == "" {
		return ErrNotConfigured
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, view(s)); err != nil {
		return fmt.Errorf("notify: render %s: %w", tmpl.Name(), err)
	}
	msg := compose(n.cfg.From, to, subject, body.Bytes())
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	// net/smtp takes no context; the send runs aside so the caller's deadline still applies.
	done := make(chan error, 1)
	go func() { done <- n.send(addr, auth, n.cfg.From, []string{to}, msg) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify: send to %s: %w", to, err)
		}
		if n.logger != nil {
			n.logger.InfoContext(ctx, "email sent", "template", tmpl.Name(), "reference", s.Reference)
		}
		return nil
	}
}

func compose(from, to, subject string, html []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.Write(html)
	return b.Bytes()
}

// LogNotifier stands in when SMTP is not configured. It logs the summary and
// reports the mail as not sent.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendGuestConfirmation(ctx context.Context, s policies.BookingSummary) error {
	n.log(ctx, "guest", s)
	return ErrNotConfigured
}

func (n LogNotifier) SendAdminAlert(ctx context.Context, s policies.BookingSummary) error {
	n.log(ctx, "admin", s)
	return ErrNotConfigured
}

func (n LogNotifier) log(ctx context.Context, audience string, s policies.BookingSummary) {
	if n.Logger == nil {
		return
	}
	n.Logger.InfoContext(ctx, "email skipped", "audience", audience, "reference", s.Reference, "villa", s.VillaName)
}

var _ policies.BookingNotifier = (*SMTPNotifier)(nil)
var _ policies.BookingNotifier = LogNotifier{}
