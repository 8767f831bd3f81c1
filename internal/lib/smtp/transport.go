package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
)

// Transport реализует отправку писем через SMTP.
type Transport struct {
	dialer Dialer
	from   string
	log    *slog.Logger
}

// NewTransport создает Transport по настройкам SMTP.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.TLSConfig = &tls.Config{
		ServerName: cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	d.SSL = cfg.SMTPPort == 465
	return NewTransportWithDialer(d, cfg.SMTPUser, log)
}

// NewTransportWithDialer создает Transport поверх произвольного Dialer.
func NewTransportWithDialer(d Dialer, from string, log *slog.Logger) *Transport {
	return &Transport{dialer: d, from: from, log: log}
}

// Send отправляет текстовое письмо одному получателю.
func (t *Transport) Send(ctx context.Context, to, subject, body string) error {
	const op = "smtp.Send"
	if to == "" {
		return fmt.Errorf("%s: %w", op, errors.New("empty recipient"))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", t.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := t.dialer.DialAndSend(m); err != nil {
		t.log.Error("failed to send email", slog.String("op", op), slog.String("to", to), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	t.log.Info("email sent successfully", slog.String("to", to))
	return nil
}
