package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
)

const userColumns = `id, email, username, password_hash, role, is_verified, preferred_language, created_at, updated_at`

const profileColumns = `user_id, phone, notification_preference, dark_mode, font_size, preferred_language, created_at, updated_at`

type userRepository struct {
	*BaseRepository
}

func NewUserRepository(base *BaseRepository) repository.UserRepository {
	return &userRepository{BaseRepository: base}
}

// Create inserts the account and its profile in one transaction.
func (r *userRepository) Create(ctx context.Context, user *model.User, profile *model.Profile) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			user.ID, user.Email, user.Username, user.PasswordHash, user.Role,
			user.IsVerified, user.PreferredLanguage, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (`+profileColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			profile.UserID, profile.Phone, profile.NotificationPreference, profile.DarkMode,
			profile.FontSize, profile.PreferredLanguage, profile.CreatedAt, profile.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err))
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", notFound(err))
	}
	return &user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	users := []*model.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateLanguage(ctx context.Context, id uuid.UUID, language string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET preferred_language = $1, updated_at = $2 WHERE id = $3`,
		language, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	return requireAffected(res)
}

func (r *userRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", notFound(err))
	}
	return &profile, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET phone = $1, notification_preference = $2, dark_mode = $3,
		    font_size = $4, preferred_language = $5, updated_at = $6
		WHERE user_id = $7`,
		profile.Phone, profile.NotificationPreference, profile.DarkMode,
		profile.FontSize, profile.PreferredLanguage, profile.UpdatedAt, profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(res)
}

func (r *userRepository) PhoneTaken(ctx context.Context, phone string, exceptUserID uuid.UUID) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE phone = $1 AND user_id <> $2)`, phone, exceptUserID)
	if err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return taken, nil
}
