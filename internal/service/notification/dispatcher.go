package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/sms"
	"github.com/jwalitptl/feedback-api/pkg/metrics"
)

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type EmailSender interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// Message is the channel-facing text of a notification.
type Message struct {
	Subject string
	Body    string
}

// Result is the outcome of one channel attempt.
type Result struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Reason  string  `json:"reason,omitempty"`
}

// Dispatcher sends a message on every channel of the recipient's plan. Each
// channel is attempted independently and exactly once.
type Dispatcher struct {
	sms     SMSSender
	email   EmailSender
	metrics *metrics.Metrics
}

func NewDispatcher(smsSender SMSSender, emailSender EmailSender, m *metrics.Metrics) *Dispatcher {
	if m == nil {
		m = metrics.Noop()
	}
	return &Dispatcher{sms: smsSender, email: emailSender, metrics: m}
}

// Dispatch never returns an error and never panics; failures are reported in
// the results and logged.
func (d *Dispatcher) Dispatch(ctx context.Context, user *model.User, profile *model.Profile, msg Message) []Result {
	plan := Resolve(profile)
	if plan.Fallback {
		log.Debug().
			Str("user_id", user.ID.String()).
			Msg("notification preference not deliverable, falling back to email")
	}

	results := make([]Result, 0, len(plan.Channels))
	for _, ch := range plan.Channels {
		results = append(results, d.send(ctx, ch, user, profile, msg))
	}
	return results
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, user *model.User, profile *model.Profile, msg Message) (res Result) {
	res.Channel = ch
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		res.Success = err == nil
		if err != nil {
			res.Reason = err.Error()
		}
		d.observe(ch, err, time.Since(start))
		d.logResult(user, res)
	}()

	switch ch {
	case ChannelSMS:
		if d.sms == nil {
			err = errors.New("sms channel not configured")
			return res
		}
		err = d.sms.Send(ctx, profile.PhoneNumber(), msg.Body)
	case ChannelEmail:
		if d.email == nil {
			err = errors.New("email channel not configured")
			return res
		}
		err = d.email.SendCustom(ctx, user.Email, msg.Subject, msg.Body)
	default:
		err = fmt.Errorf("unsupported channel: %s", ch)
	}
	return res
}

func (d *Dispatcher) observe(ch Channel, err error, elapsed time.Duration) {
	outcome := "sent"
	switch {
	case errors.Is(err, sms.ErrRateLimited):
		outcome = "rate_limited"
	case errors.Is(err, sms.ErrInvalidDestination):
		outcome = "invalid_destination"
	case err != nil:
		outcome = "failed"
	}
	d.metrics.ChannelSends.WithLabelValues(string(ch), outcome).Inc()
	d.metrics.ChannelLatency.WithLabelValues(string(ch)).Observe(elapsed.Seconds())
}

func (d *Dispatcher) logResult(user *model.User, res Result) {
	if res.Success {
		log.Info().
			Str("user_id", user.ID.String()).
			Str("channel", string(res.Channel)).
			Msg("notification sent")
		return
	}
	log.Error().
		Str("user_id", user.ID.String()).
		Str("channel", string(res.Channel)).
		Str("reason", res.Reason).
		Msg("notification send failed")
}
