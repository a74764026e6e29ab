package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a tenant-addressable space inside a property. At most one
// tenant occupies a unit at any time; occupancy changes go through a
// conditional update, never a read-then-write.
type Unit struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	PropertyID uuid.UUID  `json:"property_id" db:"property_id"`
	UnitNumber string     `json:"unit_number" db:"unit_number"`
	TenantID   *uuid.UUID `json:"tenant_id" db:"tenant_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
