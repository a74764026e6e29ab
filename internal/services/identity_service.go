package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fixflow/internal/common"

	"github.com/google/uuid"
)

// IdentityService is the boundary to the external identity provider.
// The core only consumes "create identity", "verify password" and
// "delete identity" (saga compensation); token verification happens in
// the auth middleware.
type IdentityService interface {
	CreateIdentity(ctx context.Context, email, password string) (uuid.UUID, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
	VerifyPassword(ctx context.Context, email, password string) (uuid.UUID, error)
}

type identityService struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewIdentityService(baseURL, apiKey string) IdentityService {
	return &identityService{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type createIdentityRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type identityErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *identityService) doJSON(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	return s.http.Do(req)
}

// CreateIdentity provisions an account for email. A duplicate email
// surfaces as a Conflict so the invitation saga can report
// EmailAlreadyExists without compensation.
func (s *identityService) CreateIdentity(ctx context.Context, email, password string) (uuid.UUID, error) {
	resp, err := s.doJSON(ctx, http.MethodPost, "/v1/identities", createIdentityRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return uuid.Nil, common.Upstream(err, "identity provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return uuid.Nil, common.Conflict("an account with email %s already exists", email)
	}
	if resp.StatusCode >= 400 {
		var apiErr identityErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return uuid.Nil, common.Upstream(fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, apiErr.Message), "identity creation failed")
	}

	var identity identityResponse
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return uuid.Nil, common.Upstream(err, "invalid identity provider response")
	}
	id, err := uuid.Parse(identity.ID)
	if err != nil {
		return uuid.Nil, common.Upstream(err, "identity provider returned malformed id")
	}
	return id, nil
}

func (s *identityService) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	resp, err := s.doJSON(ctx, http.MethodDelete, "/v1/identities/"+id.String(), nil)
	if err != nil {
		return common.Upstream(err, "identity provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return common.Upstream(fmt.Errorf("identity provider returned %d", resp.StatusCode), "identity deletion failed")
	}
	return nil
}

type verifyPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *identityService) VerifyPassword(ctx context.Context, email, password string) (uuid.UUID, error) {
	resp, err := s.doJSON(ctx, http.MethodPost, "/v1/identities/verify", verifyPasswordRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return uuid.Nil, common.Upstream(err, "identity provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return uuid.Nil, common.Unauthenticated("invalid email or password")
	}
	if resp.StatusCode >= 400 {
		return uuid.Nil, common.Upstream(fmt.Errorf("identity provider returned %d", resp.StatusCode), "credential verification failed")
	}

	var identity identityResponse
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return uuid.Nil, common.Upstream(err, "invalid identity provider response")
	}
	id, err := uuid.Parse(identity.ID)
	if err != nil {
		return uuid.Nil, common.Upstream(err, "identity provider returned malformed id")
	}
	return id, nil
}
