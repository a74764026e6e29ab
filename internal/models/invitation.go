package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation binds an email address to a future account with a
// pre-assigned role. The token is opaque, unique and single-use.
type Invitation struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	Email          string     `json:"email" db:"email"`
	Role           Role       `json:"role" db:"role"`
	Token          string     `json:"-" db:"token"` // never serialized back out
	UnitID         *uuid.UUID `json:"unit_id" db:"unit_id"`
	InvitedBy      uuid.UUID  `json:"invited_by" db:"invited_by"`
	ExpiresAt      time.Time  `json:"expires_at" db:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at" db:"accepted_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
