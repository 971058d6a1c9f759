package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+254712345678", true},
		{"+1234567890", true},
		{"+123456789012345", true},
		{"+123456789", false},
		{"+1234567890123456", false},
		{"254712345678", false},
		{"+0712345678", false},
		{"+25471234567a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPhone(tt.phone))
		})
	}
}

type profileForm struct {
	Phone      string `json:"phone" binding:"omitempty,phone"`
	Preference string `json:"notification_preference" binding:"required,oneof=SMS Email Both None"`
}

func TestNew_UsesBindingTags(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(profileForm{Phone: "+254712345678", Preference: "SMS"}))
	require.NoError(t, v.Struct(profileForm{Preference: "None"}))

	err := v.Struct(profileForm{Phone: "0712", Preference: "Fax"})
	require.Error(t, err)

	msgs := Messages(err)
	assert.Contains(t, msgs, "phone: failed on phone")
	assert.Contains(t, msgs, "notification_preference: failed on oneof=SMS Email Both None")
}
