package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
	"github.com/jwalitptl/feedback-api/pkg/auth"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
	"github.com/jwalitptl/feedback-api/pkg/security"
)

const tokenType = "Bearer"

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
	}
}

// Login checks the credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("stored password hash is unusable")
		}
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}
