package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel is the delivery mechanism for a notification.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// EventType keys the per-type message templates and the per-recipient
// preference flags.
type EventType string

const (
	EventNewRequest   EventType = "new_request"
	EventStatusUpdate EventType = "status_update"
	EventAssignment   EventType = "assignment"
	EventEmergency    EventType = "emergency"
	EventComment      EventType = "comment"
	EventInvitation   EventType = "invitation"
)

// Notification delivery statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// Notification is a durable record of a dispatch attempt. Failed rows
// are retried by the background scheduler, not by the triggering call.
type Notification struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	OrganizationID uuid.UUID           `json:"organization_id" db:"organization_id"`
	UserID         uuid.UUID           `json:"user_id" db:"user_id"`
	EventType      EventType           `json:"event_type" db:"event_type"`
	Channel        NotificationChannel `json:"channel" db:"channel"`
	Subject        *string             `json:"subject" db:"subject"`
	Body           string              `json:"body" db:"body"`
	Status         string              `json:"status" db:"status"`
	Error          *string             `json:"error" db:"error"`
	RequestID      *uuid.UUID          `json:"request_id" db:"request_id"`
	RetryCount     int                 `json:"retry_count" db:"retry_count"`
	ReadAt         *time.Time          `json:"read_at" db:"read_at"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}

// NotificationPreference holds a user's per-event opt-in flags.
// Defaults are all true; the invitation flow creates the row.
type NotificationPreference struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	NewRequest   bool      `json:"new_request" db:"new_request"`
	StatusUpdate bool      `json:"status_update" db:"status_update"`
	Assignment   bool      `json:"assignment" db:"assignment"`
	Emergency    bool      `json:"emergency" db:"emergency"`
	Comment      bool      `json:"comment" db:"comment"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Allows reports whether the preference row opts in to the given event
// type. Unknown event types (e.g. invitation welcomes) are always
// allowed.
func (p *NotificationPreference) Allows(event EventType) bool {
	switch event {
	case EventNewRequest:
		return p.NewRequest
	case EventStatusUpdate:
		return p.StatusUpdate
	case EventAssignment:
		return p.Assignment
	case EventEmergency:
		return p.Emergency
	case EventComment:
		return p.Comment
	}
	return true
}
