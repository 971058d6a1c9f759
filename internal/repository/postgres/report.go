package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
)

const reportColumns = `id, title, report_type, period_start, period_end, generated_at, generated_by,
	resolved_count, pending_count, satisfaction_score, status, summary, attachment, created_at, updated_at`

type reportRepository struct {
	*BaseRepository
}

func NewReportRepository(base *BaseRepository) repository.ReportRepository {
	return &reportRepository{BaseRepository: base}
}

func (r *reportRepository) Create(ctx context.Context, rep *model.Report) error {
	now := time.Now()
	rep.CreatedAt = now
	rep.UpdatedAt = now
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rep.ID, rep.Title, rep.Type, rep.PeriodStart, rep.PeriodEnd, rep.GeneratedAt, rep.GeneratedBy,
		rep.ResolvedCount, rep.PendingCount, rep.SatisfactionScore, rep.Status, rep.Summary,
		rep.Attachment, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var rep model.Report
	err := r.db.GetContext(ctx, &rep, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", notFound(err))
	}
	return &rep, nil
}

func (r *reportRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*model.Report, error) {
	reports := []*model.Report{}
	err := r.db.SelectContext(ctx, &reports,
		`SELECT `+reportColumns+` FROM reports WHERE generated_by = $1 ORDER BY generated_at DESC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	return requireAffected(res)
}

func (r *reportRepository) SetAttachment(ctx context.Context, id uuid.UUID, path string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET attachment = $1, updated_at = $2 WHERE id = $3`, path, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set report attachment: %w", err)
	}
	return requireAffected(res)
}

func (r *reportRepository) ExistsForPeriod(ctx context.Context, reportType model.ReportType, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM reports
			WHERE report_type = $1 AND period_start = $2 AND period_end = $3
		)`, reportType, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check report period: %w", err)
	}
	return exists, nil
}
