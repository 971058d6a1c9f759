package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/service/report"
	"github.com/jwalitptl/feedback-api/pkg/logger"
)

type ReportCompiler interface {
	Exists(ctx context.Context, reportType model.ReportType, today time.Time) (bool, error)
	Compile(ctx context.Context, authorID uuid.UUID, req *model.CompileReportRequest, trigger string) (*model.Report, error)
}

type ReportSchedulerConfig struct {
	Interval time.Duration
	Type     model.ReportType
	AuthorID uuid.UUID
}

// ReportScheduler compiles a draft report of one type per period, authored by
// a configured administrator.
type ReportScheduler struct {
	reports ReportCompiler
	config  ReportSchedulerConfig
	logger  *logger.Logger
	now     func() time.Time
}

func NewReportScheduler(reports ReportCompiler, config ReportSchedulerConfig, log *logger.Logger) (*ReportScheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("report interval must be positive")
	}
	if config.Type == model.ReportAdhoc {
		return nil, fmt.Errorf("ad hoc reports cannot be scheduled")
	}
	if _, err := report.PeriodFor(config.Type, time.Now()); err != nil {
		return nil, err
	}
	if config.AuthorID == uuid.Nil {
		return nil, fmt.Errorf("report author is required")
	}

	return &ReportScheduler{
		reports: reports,
		config:  config,
		logger:  log.WithFields(map[string]interface{}{"worker": "report_scheduler"}),
		now:     time.Now,
	}, nil
}

// Start runs until ctx is cancelled, checking once immediately and then on
// every tick.
func (s *ReportScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("Starting report scheduler", "report_type", string(s.config.Type), "interval", s.config.Interval.String())
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down report scheduler")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ReportScheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error(err, "Failed to compile scheduled report")
	}
}

// RunOnce compiles the report of the current period unless one exists. It
// reports whether a report was created.
func (s *ReportScheduler) RunOnce(ctx context.Context) (bool, error) {
	today := s.now()

	exists, err := s.reports.Exists(ctx, s.config.Type, today)
	if err != nil {
		return false, fmt.Errorf("failed to check existing report: %w", err)
	}
	if exists {
		return false, nil
	}

	r, err := s.reports.Compile(ctx, s.config.AuthorID, &model.CompileReportRequest{Type: s.config.Type}, report.TriggerScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to compile report: %w", err)
	}

	s.logger.Info("Scheduled report compiled", "report_id", r.ID.String())
	return true, nil
}
