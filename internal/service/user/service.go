package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/email"
	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
	"github.com/jwalitptl/feedback-api/pkg/security"
	"github.com/jwalitptl/feedback-api/pkg/validator"
)

const maxUsernameAttempts = 1000

var supportedLanguages = map[string]bool{"en": true, "sw": true, "es": true, "fr": true}

type Service interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	CreateAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*model.Settings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req *model.UpdateSettingsRequest) (*model.Settings, error)
}

type service struct {
	repo     repository.UserRepository
	hasher   security.PasswordHasher
	emailSvc email.Service
}

// NewService builds the account service. emailSvc may be nil, in which case no
// welcome mail is sent.
func NewService(repo repository.UserRepository, hasher security.PasswordHasher, emailSvc email.Service) Service {
	return &service{
		repo:     repo,
		hasher:   hasher,
		emailSvc: emailSvc,
	}
}

func (s *service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	user, err := s.create(ctx, req, model.RolePatient)
	if err != nil {
		return nil, err
	}

	if s.emailSvc != nil {
		if err := s.emailSvc.SendWelcome(ctx, user.Email, user.DisplayName()); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to send welcome email")
		}
	}
	return user, nil
}

func (s *service) CreateAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req, model.RoleAdmin)
}

func (s *service) create(ctx context.Context, req *model.RegisterRequest, role model.Role) (*model.User, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, apperrors.BadRequest("a valid email is required", nil)
	}

	if _, err := s.repo.GetByEmail(ctx, addr); err == nil {
		return nil, apperrors.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		return nil, apperrors.Internal(err)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username, err = s.uniqueUsername(ctx, strings.SplitN(addr, "@", 2)[0])
		if err != nil {
			return nil, apperrors.Internal(err)
		}
	} else if taken, err := s.repo.UsernameExists(ctx, username); err != nil {
		return nil, apperrors.Internal(err)
	} else if taken {
		return nil, apperrors.Conflict("username already taken")
	}

	user := &model.User{
		Base:              model.Base{ID: uuid.New()},
		Email:             addr,
		Username:          username,
		PasswordHash:      hashed,
		Role:              role,
		IsVerified:        role == model.RoleAdmin,
		PreferredLanguage: model.DefaultLanguage,
	}
	if err := s.repo.Create(ctx, user, model.NewProfile(user.ID)); err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(role)).
		Msg("account created")
	return user, nil
}

// uniqueUsername appends _1, _2, ... to base until the name is free.
func (s *service) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 1; n <= maxUsernameAttempts; n++ {
		taken, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
	return "", fmt.Errorf("no free username for %q", base)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr("user", err)
	}
	return user, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, mapErr("profile", err)
	}
	return profile, nil
}

// UpdateProfile sets the phone and channel preference. SMS and Both need a
// phone that no other profile uses.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch req.NotificationPreference {
	case model.PreferenceSMS, model.PreferenceEmail, model.PreferenceBoth, model.PreferenceNone:
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid notification preference %q", req.NotificationPreference), nil)
	}

	// an omitted phone keeps the current one, an empty phone clears it
	phone := profile.Phone
	if req.Phone != nil {
		phone = nil
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		p := strings.TrimSpace(*req.Phone)
		if !validator.IsPhone(p) {
			return nil, apperrors.BadRequest("phone must be in international format, e.g. +254712345678", nil)
		}
		taken, err := s.repo.PhoneTaken(ctx, p, userID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if taken {
			return nil, apperrors.Conflict("phone number already in use")
		}
		phone = &p
	}

	needsPhone := req.NotificationPreference == model.PreferenceSMS || req.NotificationPreference == model.PreferenceBoth
	if needsPhone && phone == nil {
		return nil, apperrors.BadRequest("a phone number is required for SMS notifications", nil)
	}

	profile.Phone = phone
	profile.NotificationPreference = req.NotificationPreference
	profile.UpdatedAt = time.Now()
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, mapErr("profile", err)
	}
	return profile, nil
}

func (s *service) GetSettings(ctx context.Context, userID uuid.UUID) (*model.Settings, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return settingsOf(profile), nil
}

func (s *service) UpdateSettings(ctx context.Context, userID uuid.UUID, req *model.UpdateSettingsRequest) (*model.Settings, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DarkMode != nil {
		profile.DarkMode = *req.DarkMode
	}
	if req.FontSize != "" {
		switch req.FontSize {
		case model.FontSizeSmall, model.FontSizeMedium, model.FontSizeLarge:
			profile.FontSize = req.FontSize
		default:
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid font size %q", req.FontSize), nil)
		}
	}
	languageChanged := false
	if req.PreferredLanguage != "" && req.PreferredLanguage != profile.PreferredLanguage {
		if !supportedLanguages[req.PreferredLanguage] {
			return nil, apperrors.BadRequest(fmt.Sprintf("unsupported language %q", req.PreferredLanguage), nil)
		}
		profile.PreferredLanguage = req.PreferredLanguage
		languageChanged = true
	}

	profile.UpdatedAt = time.Now()
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, mapErr("profile", err)
	}
	if languageChanged {
		if err := s.repo.UpdateLanguage(ctx, userID, profile.PreferredLanguage); err != nil {
			return nil, mapErr("user", err)
		}
	}
	return settingsOf(profile), nil
}

func settingsOf(p *model.Profile) *model.Settings {
	return &model.Settings{
		DarkMode:          p.DarkMode,
		FontSize:          p.FontSize,
		PreferredLanguage: p.PreferredLanguage,
	}
}

func mapErr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, nil)
	}
	return apperrors.Internal(err)
}
