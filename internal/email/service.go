package email

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendWelcome(ctx context.Context, email string, name string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Dialer is the part of gomail.Dialer the service uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	cfg    Config
	dialer Dialer
}

func NewSMTPService(cfg Config) (Service, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, errors.New("smtp host, port and from address are required")
	}
	return NewService(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)), nil
}

func NewService(cfg Config, dialer Dialer) Service {
	return &smtpService{cfg: cfg, dialer: dialer}
}

func (s *smtpService) SendWelcome(ctx context.Context, email string, name string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour account has been created. You can now submit feedback and follow our responses.\n",
		name,
	)
	return s.SendCustom(ctx, email, "Welcome to Hospital Feedback", body)
}

// SendCustom sends a plain-text message. Transport errors are returned as-is.
func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if to == "" {
		return errors.New("email recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
