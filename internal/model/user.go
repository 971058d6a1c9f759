package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "Patient"
	RoleAdmin   Role = "Admin"
)

// NotificationPreference is the persisted channel choice of a profile.
type NotificationPreference string

const (
	PreferenceSMS   NotificationPreference = "SMS"
	PreferenceEmail NotificationPreference = "Email"
	PreferenceBoth  NotificationPreference = "Both"
	PreferenceNone  NotificationPreference = "None"
)

const (
	FontSizeSmall  = "small"
	FontSizeMedium = "medium"
	FontSizeLarge  = "large"

	DefaultLanguage = "en"
)

// User represents an account of a patient or an administrator
type User struct {
	Base
	Email             string `json:"email" db:"email"`
	Username          string `json:"username" db:"username"`
	PasswordHash      string `json:"-" db:"password_hash"`
	Role              Role   `json:"role" db:"role"`
	IsVerified        bool   `json:"is_verified" db:"is_verified"`
	PreferredLanguage string `json:"preferred_language" db:"preferred_language"`
}

// DisplayName is the name used in notification texts.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile holds contact and display preferences, one per user.
type Profile struct {
	UserID                 uuid.UUID              `json:"user_id" db:"user_id"`
	Phone                  *string                `json:"phone,omitempty" db:"phone"`
	NotificationPreference NotificationPreference `json:"notification_preference" db:"notification_preference"`
	DarkMode               bool                   `json:"dark_mode" db:"dark_mode"`
	FontSize               string                 `json:"font_size" db:"font_size"`
	PreferredLanguage      string                 `json:"preferred_language" db:"preferred_language"`
	CreatedAt              time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at" db:"updated_at"`
}

// NewProfile returns the profile created alongside a new account.
func NewProfile(userID uuid.UUID) *Profile {
	now := time.Now()
	return &Profile{
		UserID:                 userID,
		NotificationPreference: PreferenceBoth,
		FontSize:               FontSizeMedium,
		PreferredLanguage:      DefaultLanguage,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// PhoneNumber returns the phone or "" when absent.
func (p *Profile) PhoneNumber() string {
	if p == nil || p.Phone == nil {
		return ""
	}
	return *p.Phone
}

// Settings is the display subset of a profile exposed on /settings.
type Settings struct {
	DarkMode          bool   `json:"dark_mode"`
	FontSize          string `json:"font_size"`
	PreferredLanguage string `json:"preferred_language"`
}

type UpdateProfileRequest struct {
	Phone                  *string                `json:"phone" binding:"omitempty,phone"`
	NotificationPreference NotificationPreference `json:"notification_preference" binding:"required,oneof=SMS Email Both None"`
}

type UpdateSettingsRequest struct {
	DarkMode          *bool  `json:"dark_mode"`
	FontSize          string `json:"font_size" binding:"omitempty,oneof=small medium large"`
	PreferredLanguage string `json:"preferred_language" binding:"omitempty,oneof=en sw es fr"`
}
