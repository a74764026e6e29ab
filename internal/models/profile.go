package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a profile can hold. Role is immutable
// after the profile is created.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
	RoleTenant  Role = "tenant"
)

// ValidRole reports whether s names one of the four platform roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleOwner, RoleManager, RoleWorker, RoleTenant:
		return true
	}
	return false
}

// Profile is a member of an organization. The profile ID equals the
// identity provider's user ID for the account.
type Profile struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Role           Role      `json:"role" db:"role"`
	FullName       string    `json:"full_name" db:"full_name"`
	Email          string    `json:"email" db:"email"`
	Phone          *string   `json:"phone" db:"phone"`
	EmailEnabled   bool      `json:"email_enabled" db:"email_enabled"`
	SMSEnabled     bool      `json:"sms_enabled" db:"sms_enabled"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
