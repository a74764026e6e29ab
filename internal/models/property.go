package models

import (
	"time"

	"github.com/google/uuid"
)

// Property is a building or site owned by an organization. Units live
// under a property.
type Property struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	Name           string     `json:"name" db:"name"`
	AddressLine1   string     `json:"address_line1" db:"address_line1"`
	AddressLine2   *string    `json:"address_line2" db:"address_line2"`
	City           string     `json:"city" db:"city"`
	State          string     `json:"state" db:"state"`
	PostalCode     string     `json:"postal_code" db:"postal_code"`
	ManagerID      *uuid.UUID `json:"manager_id" db:"manager_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
