package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type FeedbackCategory string

const (
	CategoryComplaint  FeedbackCategory = "Complaint"
	CategorySuggestion FeedbackCategory = "Suggestion"
	CategoryPraise     FeedbackCategory = "Praise"
)

type FeedbackStatus string

const (
	FeedbackStatusPending    FeedbackStatus = "Pending"
	FeedbackStatusInProgress FeedbackStatus = "In Progress"
	FeedbackStatusResolved   FeedbackStatus = "Resolved"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is a patient submission with a rating and optional attachments.
type Feedback struct {
	Base
	PatientID   uuid.UUID        `json:"patient_id" db:"patient_id"`
	Category    FeedbackCategory `json:"category" db:"category"`
	Content     string           `json:"content" db:"content"`
	Rating      int              `json:"rating" db:"rating"`
	Status      FeedbackStatus   `json:"status" db:"status"`
	Attachments pq.StringArray   `json:"attachments" db:"attachments"`
	Responses   []*Response      `json:"responses,omitempty" db:"-"`
}

// Response is an administrator reply to a feedback.
type Response struct {
	Base
	FeedbackID uuid.UUID `json:"feedback_id" db:"feedback_id"`
	// AdminID is nil only on rows written before responders were recorded.
	AdminID *uuid.UUID `json:"admin_id" db:"admin_id"`
	Content string     `json:"content" db:"content"`
}

type FeedbackFilter struct {
	PatientID *uuid.UUID
	Status    FeedbackStatus   `form:"status" binding:"omitempty,oneof=Pending 'In Progress' Resolved"`
	Category  FeedbackCategory `form:"category" binding:"omitempty,oneof=Complaint Suggestion Praise"`
	Limit     int              `form:"limit" binding:"omitempty,min=1,max=100"`
}

// FeedbackStats aggregates feedback created inside a period.
type FeedbackStats struct {
	Total         int     `db:"total"`
	Resolved      int     `db:"resolved"`
	Pending       int     `db:"pending"`
	AverageRating float64 `db:"average_rating"`
}

type CreateFeedbackRequest struct {
	Category FeedbackCategory `form:"category" json:"category" binding:"required,oneof=Complaint Suggestion Praise"`
	Content  string           `form:"content" json:"content" binding:"required"`
	Rating   int              `form:"rating" json:"rating" binding:"required,min=1,max=5"`
}

type UpdateFeedbackRequest struct {
	Category FeedbackCategory `form:"category" json:"category" binding:"omitempty,oneof=Complaint Suggestion Praise"`
	Content  string           `form:"content" json:"content"`
	Rating   *int             `form:"rating" json:"rating" binding:"omitempty,min=1,max=5"`
}

type CreateResponseRequest struct {
	Content string         `json:"content" binding:"required"`
	Status  FeedbackStatus `json:"status" binding:"omitempty,oneof=Pending 'In Progress' Resolved"`
}

// Dashboard is the landing view of an authenticated user.
type Dashboard struct {
	Feedback      []*Feedback     `json:"feedback"`
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}
