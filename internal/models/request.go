package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the state of a maintenance request. Completed and
// cancelled are terminal.
type RequestStatus string

const (
	StatusSubmitted  RequestStatus = "submitted"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// RequestPriority orders requests for triage. Emergency additionally
// triggers the emergency notification event.
type RequestPriority string

const (
	PriorityLow       RequestPriority = "low"
	PriorityMedium    RequestPriority = "medium"
	PriorityHigh      RequestPriority = "high"
	PriorityEmergency RequestPriority = "emergency"
)

// ValidPriority reports whether s names a known priority.
func ValidPriority(s string) bool {
	switch RequestPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency:
		return true
	}
	return false
}

// ValidStatus reports whether s names a known request status.
func ValidStatus(s string) bool {
	switch RequestStatus(s) {
	case StatusSubmitted, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// requestTransitions is the adjacency table for request statuses.
// Work may not start before assignment: submitted -> in_progress is
// not an edge.
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusSubmitted:  {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from -> to is a legal status edge.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MaintenanceRequest is the core lifecycle entity. OrganizationID,
// PropertyID and UnitID are resolved from the unit at creation and
// never re-derived.
type MaintenanceRequest struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrganizationID  uuid.UUID       `json:"organization_id" db:"organization_id"`
	PropertyID      uuid.UUID       `json:"property_id" db:"property_id"`
	UnitID          uuid.UUID       `json:"unit_id" db:"unit_id"`
	TenantID        uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	AssignedTo      *uuid.UUID      `json:"assigned_to" db:"assigned_to"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description" db:"description"`
	Category        string          `json:"category" db:"category"`
	Priority        RequestPriority `json:"priority" db:"priority"`
	Status          RequestStatus   `json:"status" db:"status"`
	ResolutionNotes *string         `json:"resolution_notes" db:"resolution_notes"`
	CompletedBy     *uuid.UUID      `json:"completed_by" db:"completed_by"`
	CompletedAt     *time.Time      `json:"completed_at" db:"completed_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// RequestAttachment is a file stored in the object store and linked to
// a request by its public URL.
type RequestAttachment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RequestID  uuid.UUID `json:"request_id" db:"request_id"`
	ObjectKey  string    `json:"object_key" db:"object_key"`
	PublicURL  string    `json:"public_url" db:"public_url"`
	UploadedBy uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RequestFilter narrows the caller's base visibility set. Filters never
// widen what a role can see.
type RequestFilter struct {
	Status     *RequestStatus
	Priority   *RequestPriority
	PropertyID *uuid.UUID
	Limit      int
	Offset     int
}
