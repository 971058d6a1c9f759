package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/feedback-api/internal/model"
)

func testUser() *model.User {
	return &model.User{Base: model.Base{ID: uuid.New()}, Email: "amina@hospital.org", Role: model.RoleAdmin}
}

func TestGenerateAndValidate(t *testing.T) {
	svc, err := NewJWTService(Config{Secret: "secret", Issuer: "feedback-api", Expiry: time.Hour})
	require.NoError(t, err)
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestValidate_Expired(t *testing.T) {
	svc, err := NewJWTService(Config{Secret: "secret", Expiry: time.Minute})
	require.NoError(t, err)
	s := svc.(*jwtService)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := s.GenerateAccessToken(testUser())
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	a, _ := NewJWTService(Config{Secret: "one"})
	b, _ := NewJWTService(Config{Secret: "two"})

	token, _, err := a.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	svc, _ := NewJWTService(Config{Secret: "secret"})
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(Config{})
	assert.Error(t, err)
}
