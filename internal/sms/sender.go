// Package sms sends text messages through an HTTP gateway with a per-destination
// rate limit.
package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/pkg/validator"
)

const (
	// MaxBodyLength is the longest body handed to the gateway, in characters.
	MaxBodyLength = 1600

	// StatusAccepted is the gateway status for an accepted message.
	StatusAccepted = "0"

	rateLimitKeyPrefix = "sms_rate_limit:"
)

var (
	ErrInvalidDestination = errors.New("invalid sms destination")
	ErrRateLimited        = errors.New("sms rate limit active for destination")
)

// GatewayError is a rejection reported by the gateway itself.
type GatewayError struct {
	Status string
	Text   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sms gateway rejected message (status %s): %s", e.Status, e.Text)
}

// Message is one outbound SMS.
type Message struct {
	From string
	To   string
	Text string
}

// GatewayResult is the gateway's verdict for a single message.
type GatewayResult struct {
	MessageID string
	Status    string
	ErrorText string
}

type Gateway interface {
	Send(ctx context.Context, msg Message) (*GatewayResult, error)
}

type Config struct {
	SenderID        string
	RateLimitWindow time.Duration
}

type Sender struct {
	cfg     Config
	gateway Gateway
	limiter Limiter
}

// NewSender builds the SMS channel sender. limiter may be nil when
// RateLimitWindow is zero.
func NewSender(cfg Config, gateway Gateway, limiter Limiter) (*Sender, error) {
	if cfg.SenderID == "" {
		return nil, errors.New("sms sender id is required")
	}
	if gateway == nil {
		return nil, errors.New("sms gateway is required")
	}
	if cfg.RateLimitWindow > 0 && limiter == nil {
		return nil, errors.New("sms rate limiter is required when a window is set")
	}
	return &Sender{cfg: cfg, gateway: gateway, limiter: limiter}, nil
}

// RateLimitKey is the cache key guarding one destination.
func RateLimitKey(to string) string {
	return rateLimitKeyPrefix + to
}

// Send validates the destination, truncates the body and hands it to the
// gateway unless a send to the same destination succeeded within the window.
// The window check and the write after a successful send are not atomic.
func (s *Sender) Send(ctx context.Context, to, body string) error {
	if !validator.IsPhone(to) {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, to)
	}

	body = Truncate(body, MaxBodyLength)
	key := RateLimitKey(to)

	if s.limited() {
		held, err := s.limiter.Limited(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("to", to).Msg("sms rate limit check failed, sending anyway")
		} else if held {
			return ErrRateLimited
		}
	}

	res, err := s.gateway.Send(ctx, Message{From: s.cfg.SenderID, To: to, Text: body})
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	if res.Status != StatusAccepted {
		return &GatewayError{Status: res.Status, Text: res.ErrorText}
	}

	if s.limited() {
		if err := s.limiter.Hold(ctx, key, s.cfg.RateLimitWindow); err != nil {
			log.Warn().Err(err).Str("to", to).Msg("failed to record sms rate limit")
		}
	}

	log.Debug().Str("to", to).Str("message_id", res.MessageID).Msg("sms accepted by gateway")
	return nil
}

func (s *Sender) limited() bool {
	return s.cfg.RateLimitWindow > 0 && s.limiter != nil
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
