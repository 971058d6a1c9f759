package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "Unread"
	NotificationStatusRead   NotificationStatus = "Read"
)

type NotificationType string

const (
	NotificationTypeMessage NotificationType = "message"
	NotificationTypeAlert   NotificationType = "alert"
	NotificationTypeInfo    NotificationType = "info"
)

// Notification is the in-app record of a notification attempt. It is written
// before any channel is tried and says nothing about delivery.
type Notification struct {
	Base
	UserID     uuid.UUID          `json:"user_id" db:"user_id"`
	FeedbackID *uuid.UUID         `json:"feedback_id,omitempty" db:"feedback_id"`
	Title      string             `json:"title" db:"title"`
	Message    string             `json:"message" db:"message"`
	Type       NotificationType   `json:"notification_type" db:"notification_type"`
	Status     NotificationStatus `json:"status" db:"status"`
	Link       string             `json:"link,omitempty" db:"link"`
	MetaData   JSONMap            `json:"meta_data,omitempty" db:"meta_data"`
}

// NotificationEvent is published for live in-app delivery.
type NotificationEvent struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID uuid.UUID  `json:"notification_id"`
	UserID         uuid.UUID  `json:"user_id"`
	FeedbackID     *uuid.UUID `json:"feedback_id,omitempty"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}
