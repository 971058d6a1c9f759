package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
)

const feedbackColumns = `id, patient_id, category, content, rating, status, attachments, created_at, updated_at`

const responseColumns = `id, feedback_id, admin_id, content, created_at, updated_at`

type feedbackRepository struct {
	*BaseRepository
}

func NewFeedbackRepository(base *BaseRepository) repository.FeedbackRepository {
	return &feedbackRepository{BaseRepository: base}
}

func (r *feedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (`+feedbackColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.PatientID, f.Category, f.Content, f.Rating, f.Status, f.Attachments, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) Get(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	var f model.Feedback
	err := r.db.GetContext(ctx, &f, `SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", notFound(err))
	}
	return &f, nil
}

func (r *feedbackRepository) Update(ctx context.Context, f *model.Feedback) error {
	f.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE feedback
		SET category = $1, content = $2, rating = $3, status = $4, attachments = $5, updated_at = $6
		WHERE id = $7`,
		f.Category, f.Content, f.Rating, f.Status, f.Attachments, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	return requireAffected(res)
}

func (r *feedbackRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.FeedbackStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE feedback SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update feedback status: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the feedback; responses and notifications cascade.
func (r *feedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return requireAffected(res)
}

func (r *feedbackRepository) List(ctx context.Context, filter *model.FeedbackFilter) ([]*model.Feedback, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.PatientID != nil {
			args = append(args, *filter.PatientID)
			conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
		}
		if filter.Category != "" {
			args = append(args, filter.Category)
			conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
		}
	}

	query := `SELECT ` + feedbackColumns + ` FROM feedback`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	items := []*model.Feedback{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

// Stats counts feedback created in [from, to]. Anything not resolved is pending.
func (r *feedbackRepository) Stats(ctx context.Context, from, to time.Time) (*model.FeedbackStats, error) {
	var stats model.FeedbackStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = $1) AS resolved,
			COUNT(*) FILTER (WHERE status <> $1) AS pending,
			COALESCE(AVG(rating), 0) AS average_rating
		FROM feedback
		WHERE created_at >= $2 AND created_at <= $3`,
		model.FeedbackStatusResolved, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute feedback stats: %w", err)
	}
	return &stats, nil
}

func (r *feedbackRepository) CreateResponse(ctx context.Context, resp *model.Response, status model.FeedbackStatus) error {
	now := time.Now()
	resp.CreatedAt = now
	resp.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO responses (`+responseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			resp.ID, resp.FeedbackID, resp.AdminID, resp.Content, resp.CreatedAt, resp.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create response: %w", err)
		}

		if status == "" {
			return nil
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE feedback SET status = $1, updated_at = $2 WHERE id = $3`, status, now, resp.FeedbackID)
		if err != nil {
			return fmt.Errorf("failed to update feedback status: %w", err)
		}
		return requireAffected(res)
	})
}

func (r *feedbackRepository) ListResponses(ctx context.Context, feedbackID uuid.UUID) ([]*model.Response, error) {
	responses := []*model.Response{}
	err := r.db.SelectContext(ctx, &responses,
		`SELECT `+responseColumns+` FROM responses WHERE feedback_id = $1 ORDER BY created_at DESC`, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}
