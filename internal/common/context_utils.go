package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fixflow/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey         contextKey = "user_id"
	OrganizationIDKey contextKey = "organization_id"
	RoleKey           contextKey = "role"
)

// Caller is the resolved identity attached to every authenticated
// request: who is calling, with which role, in which organization.
type Caller struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           models.Role
}

// WithCaller attaches the resolved caller to the request context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, caller.UserID)
	ctx = context.WithValue(ctx, OrganizationIDKey, caller.OrganizationID)
	ctx = context.WithValue(ctx, RoleKey, caller.Role)
	return ctx
}

// CallerFromContext extracts the resolved caller. ok is false when the
// request never passed the auth middleware.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return Caller{}, false
	}
	orgID, ok := ctx.Value(OrganizationIDKey).(uuid.UUID)
	if !ok {
		return Caller{}, false
	}
	role, ok := ctx.Value(RoleKey).(models.Role)
	if !ok {
		return Caller{}, false
	}
	return Caller{UserID: userID, OrganizationID: orgID, Role: role}, true
}

// ValidateUUID parses a UUID path or body parameter with a field-named
// validation error.
func ValidateUUID(idStr, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, Validation("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, Validation("%s is not a valid UUID", fieldName)
	}
	return id, nil
}

// ValidateRequiredString validates required string fields.
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return Validation("%s is required", fieldName)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address. Invitation email
// matching is case-insensitive by contract.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePaginationParams clamps limit/offset to sane bounds.
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ParsePagination parses limit/offset query parameters and clamps them
// with ValidatePaginationParams. Empty strings take the defaults.
func ParsePagination(limitStr, offsetStr string) (int, int, error) {
	limit, offset := 0, 0
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, Validation("limit must be an integer")
		}
		limit = n
	}
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, Validation("offset must be an integer")
		}
		offset = n
	}
	limit, offset = ValidatePaginationParams(limit, offset)
	return limit, offset, nil
}

// SafeString safely dereferences an optional string.
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MonthBucket formats the calendar-month key used for monthly usage
// counters, e.g. "2026-08".
func MonthBucket(year int, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
