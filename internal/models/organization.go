package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenancy boundary. Every profile, property and
// maintenance request belongs to exactly one organization.
type Organization struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	Slug               string     `json:"slug" db:"slug"`
	Code               string     `json:"code" db:"code"` // short uppercase lookup code
	PlanID             string     `json:"plan_id" db:"plan_id"`
	SubscriptionStatus string     `json:"subscription_status" db:"subscription_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at" db:"trial_ends_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Subscription statuses as reported by the billing provider webhook.
const (
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)
