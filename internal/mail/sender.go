package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/SG-STD/ofox-backend/internal/config"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Verification carries one outgoing verification email.
type Verification struct {
	To     string
	Handle string
	Code   string
	TTL    time.Duration
}

type Sender interface {
	SendVerification(ctx context.Context, v Verification) error
}

type SMTPSender struct {
	cfg     config.SMTPConfig
	appName string
	log     zerolog.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, appName string, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, appName: appName, log: log}
}

func (s *SMTPSender) SendVerification(ctx context.Context, v Verification) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return ErrNotConfigured
	}

	body, err := renderVerification(s.appName, v.Handle, v.Code, v.TTL, time.Now())
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(v.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(s.appName + " verification code")
	msg.SetBodyString(gomail.TypeTextHTML, body)

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.SSL {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	s.log.Debug().Str("to", v.To).Msg("verification email sent")
	return nil
}

// LogSender stands in for SMTP in development: it logs instead of sending.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendVerification(_ context.Context, v Verification) error {
	s.log.Info().Str("to", v.To).Str("handle", v.Handle).Str("code", v.Code).Msg("smtp disabled, verification email not sent")
	return nil
}

// NewSender picks SMTP when a host is configured. Outside production a
// missing host falls back to LogSender.
func NewSender(cfg *config.AppConfig, log zerolog.Logger) Sender {
	if cfg.SMTP.Host == "" && cfg.Environment != "production" {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg.SMTP, cfg.CrashReport.AppName, log)
}
