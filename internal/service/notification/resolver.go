package notification

import "github.com/jwalitptl/feedback-api/internal/model"

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Plan is the set of channels a recipient should be reached on.
type Plan struct {
	Channels []Channel
	// Fallback is set when the stated preference could not be honoured and
	// email was chosen instead.
	Fallback bool
}

var emailFallback = Plan{Channels: []Channel{ChannelEmail}, Fallback: true}

// Resolve maps a profile to channels. A nil profile, a preference that needs a
// phone the profile lacks, None, and unknown values all fall back to email.
func Resolve(profile *model.Profile) Plan {
	if profile == nil {
		return emailFallback
	}

	hasPhone := profile.PhoneNumber() != ""

	switch profile.NotificationPreference {
	case model.PreferenceSMS:
		if hasPhone {
			return Plan{Channels: []Channel{ChannelSMS}}
		}
	case model.PreferenceEmail:
		return Plan{Channels: []Channel{ChannelEmail}}
	case model.PreferenceBoth:
		if hasPhone {
			return Plan{Channels: []Channel{ChannelSMS, ChannelEmail}}
		}
	}

	return emailFallback
}
