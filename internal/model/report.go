package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	ReportDaily     ReportType = "DAILY"
	ReportWeekly    ReportType = "WEEKLY"
	ReportMonthly   ReportType = "MONTHLY"
	ReportQuarterly ReportType = "QUARTERLY"
	ReportAnnual    ReportType = "ANNUAL"
	ReportAdhoc     ReportType = "ADHOC"
)

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "DRAFT"
	ReportStatusPublished ReportStatus = "PUBLISHED"
	ReportStatusArchived  ReportStatus = "ARCHIVED"
)

const MaxSatisfactionScore = 5.0

// Report is a periodic satisfaction summary compiled by an administrator.
type Report struct {
	Base
	Title             string       `json:"title" db:"title"`
	Type              ReportType   `json:"report_type" db:"report_type"`
	PeriodStart       time.Time    `json:"period_start" db:"period_start"`
	PeriodEnd         time.Time    `json:"period_end" db:"period_end"`
	GeneratedAt       time.Time    `json:"generated_at" db:"generated_at"`
	GeneratedBy       uuid.UUID    `json:"generated_by" db:"generated_by"`
	ResolvedCount     int          `json:"resolved_count" db:"resolved_count"`
	PendingCount      int          `json:"pending_count" db:"pending_count"`
	SatisfactionScore float64      `json:"satisfaction_score" db:"satisfaction_score"`
	Status            ReportStatus `json:"status" db:"status"`
	Summary           string       `json:"summary" db:"summary"`
	// Attachment is the stored path of an uploaded report file.
	Attachment *string `json:"attachment,omitempty" db:"attachment"`
}

func (r *Report) SatisfactionPercentage() float64 {
	return round2(r.SatisfactionScore / MaxSatisfactionScore * 100)
}

func (r *Report) SatisfactionLevel() string {
	switch {
	case r.SatisfactionScore >= 4.0:
		return "high"
	case r.SatisfactionScore >= 2.5:
		return "medium"
	default:
		return "low"
	}
}

func (r *Report) FeedbackTotal() int {
	return r.ResolvedCount + r.PendingCount
}

// ResolutionRate is the resolved share of all counted feedback, in percent.
func (r *Report) ResolutionRate() float64 {
	total := r.FeedbackTotal()
	if total == 0 {
		return 0
	}
	return round2(float64(r.ResolvedCount) / float64(total) * 100)
}

// ReportView is the API representation including derived figures.
type ReportView struct {
	*Report
	SatisfactionPercentage float64 `json:"satisfaction_percentage"`
	SatisfactionLevel      string  `json:"satisfaction_level"`
	FeedbackTotal          int     `json:"feedback_total"`
	ResolutionRate         float64 `json:"resolution_rate"`
}

func (r *Report) View() *ReportView {
	return &ReportView{
		Report:                 r,
		SatisfactionPercentage: r.SatisfactionPercentage(),
		SatisfactionLevel:      r.SatisfactionLevel(),
		FeedbackTotal:          r.FeedbackTotal(),
		ResolutionRate:         r.ResolutionRate(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type CreateReportRequest struct {
	Title             string     `json:"title" binding:"required,max=200"`
	Type              ReportType `json:"report_type" binding:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY ANNUAL ADHOC"`
	PeriodStart       *Date      `json:"period_start"`
	PeriodEnd         *Date      `json:"period_end"`
	ResolvedCount     int        `json:"resolved_count" binding:"min=0"`
	PendingCount      int        `json:"pending_count" binding:"min=0"`
	SatisfactionScore float64    `json:"satisfaction_score"`
	Summary           string     `json:"summary"`
}

type CompileReportRequest struct {
	Title       string     `json:"title" binding:"max=200"`
	Type        ReportType `json:"report_type" binding:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY ANNUAL ADHOC"`
	PeriodStart *Date      `json:"period_start"`
	PeriodEnd   *Date      `json:"period_end"`
}

type UpdateReportStatusRequest struct {
	Status ReportStatus `json:"status" binding:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
}
