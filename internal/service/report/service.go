package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
	"github.com/jwalitptl/feedback-api/internal/storage"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
	"github.com/jwalitptl/feedback-api/pkg/metrics"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, req *model.CreateReportRequest) (*model.Report, error)
	Compile(ctx context.Context, authorID uuid.UUID, req *model.CompileReportRequest, trigger string) (*model.Report, error)
	List(ctx context.Context, authorID uuid.UUID) ([]*model.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) (*model.Report, error)
	// Attach stores an uploaded file for the report, replacing any earlier one.
	Attach(ctx context.Context, id uuid.UUID, upload storage.Upload) (*model.Report, error)
	// Exists reports whether a report of the type already covers the period of today.
	Exists(ctx context.Context, reportType model.ReportType, today time.Time) (bool, error)
}

type FileStore interface {
	Validate(u storage.Upload) error
	SaveReportFile(reportID uuid.UUID, u storage.Upload) (string, error)
	Remove(paths []string) []error
}

type service struct {
	repo     repository.ReportRepository
	feedback repository.FeedbackRepository
	files    FileStore
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(repo repository.ReportRepository, feedback repository.FeedbackRepository,
	files FileStore, m *metrics.Metrics) Service {
	if m == nil {
		m = metrics.Noop()
	}
	return &service{
		repo:     repo,
		feedback: feedback,
		files:    files,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, req *model.CreateReportRequest) (*model.Report, error) {
	if !validType(req.Type) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid report type %q", req.Type), nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.BadRequest("title is required", nil)
	}
	if req.ResolvedCount < 0 || req.PendingCount < 0 {
		return nil, apperrors.BadRequest("counts must not be negative", nil)
	}
	if req.SatisfactionScore < 0 || req.SatisfactionScore > model.MaxSatisfactionScore {
		return nil, apperrors.BadRequest("satisfaction score must be between 0 and 5", nil)
	}

	period, err := resolvePeriod(req.Type, req.PeriodStart.TimeOrNil(), req.PeriodEnd.TimeOrNil(), s.now())
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	r := s.newReport(authorID, strings.TrimSpace(req.Title), req.Type, period)
	r.ResolvedCount = req.ResolvedCount
	r.PendingCount = req.PendingCount
	r.SatisfactionScore = req.SatisfactionScore
	r.Summary = req.Summary

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, apperrors.Internal(err)
	}
	return r, nil
}

// Compile fills the figures of a new draft report from feedback created
// inside the period.
func (s *service) Compile(ctx context.Context, authorID uuid.UUID, req *model.CompileReportRequest, trigger string) (*model.Report, error) {
	if !validType(req.Type) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid report type %q", req.Type), nil)
	}
	period, err := resolvePeriod(req.Type, req.PeriodStart.TimeOrNil(), req.PeriodEnd.TimeOrNil(), s.now())
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	from, to := period.Bounds()
	stats, err := s.feedback.Stats(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s%s report %s", string(req.Type[0]), strings.ToLower(string(req.Type[1:])), period)
	}

	r := s.newReport(authorID, title, req.Type, period)
	r.ResolvedCount = stats.Resolved
	r.PendingCount = stats.Pending
	r.SatisfactionScore = clampScore(stats.AverageRating)
	r.Summary = fmt.Sprintf("%d feedback received, %d resolved, %d pending, average rating %.2f.",
		stats.Total, stats.Resolved, stats.Pending, r.SatisfactionScore)

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.metrics.ReportsCompiled.WithLabelValues(string(r.Type), trigger).Inc()
	log.Info().
		Str("report_id", r.ID.String()).
		Str("report_type", string(r.Type)).
		Str("period", period.String()).
		Str("trigger", trigger).
		Int("feedback", stats.Total).
		Msg("report compiled")

	return r, nil
}

func (s *service) List(ctx context.Context, authorID uuid.UUID) ([]*model.Report, error) {
	reports, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return reports, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) (*model.Report, error) {
	switch status {
	case model.ReportStatusDraft, model.ReportStatusPublished, model.ReportStatusArchived:
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid report status %q", status), nil)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapErr(err)
	}
	return s.Get(ctx, id)
}

func (s *service) Attach(ctx context.Context, id uuid.UUID, upload storage.Upload) (*model.Report, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := s.files.Validate(upload); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	previous := r.Attachment
	path, err := s.files.SaveReportFile(r.ID, upload)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.SetAttachment(ctx, r.ID, path); err != nil {
		s.files.Remove([]string{path})
		return nil, mapErr(err)
	}

	if previous != nil && *previous != path {
		s.files.Remove([]string{*previous})
	}
	r.Attachment = &path

	log.Info().
		Str("report_id", r.ID.String()).
		Str("path", path).
		Msg("report file attached")
	return r, nil
}

func (s *service) Exists(ctx context.Context, reportType model.ReportType, today time.Time) (bool, error) {
	period, err := PeriodFor(reportType, today)
	if err != nil {
		return false, err
	}
	return s.repo.ExistsForPeriod(ctx, reportType, period.Start, period.End)
}

func (s *service) newReport(authorID uuid.UUID, title string, t model.ReportType, p Period) *model.Report {
	return &model.Report{
		Base:        model.Base{ID: uuid.New()},
		Title:       title,
		Type:        t,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
		GeneratedAt: s.now(),
		GeneratedBy: authorID,
		Status:      model.ReportStatusDraft,
	}
}

func validType(t model.ReportType) bool {
	switch t {
	case model.ReportDaily, model.ReportWeekly, model.ReportMonthly,
		model.ReportQuarterly, model.ReportAnnual, model.ReportAdhoc:
		return true
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > model.MaxSatisfactionScore {
		return model.MaxSatisfactionScore
	}
	return v
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("report", nil)
	}
	return apperrors.Internal(err)
}
