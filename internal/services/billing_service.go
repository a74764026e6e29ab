package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fixflow/internal/common"

	"github.com/google/uuid"
)

// BillingService is the boundary to the billing provider. The core only
// creates checkout sessions and consumes status webhooks.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, organizationID uuid.UUID, planID, customerEmail string) (*CheckoutSession, error)
	VerifyWebhook(rawBody []byte, signature string) (*BillingWebhookEvent, error)
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type BillingWebhookEvent struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	OrganizationID string `json:"organization_id"`
	PlanID         string `json:"plan_id"`
	Status         string `json:"status"`
	Created        int64  `json:"created"`
}

type billingService struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	http          *http.Client
}

func NewBillingService(baseURL, apiKey, webhookSecret string) BillingService {
	return &billingService{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

type createCheckoutRequest struct {
	OrganizationID string `json:"organization_id"`
	PlanID         string `json:"plan_id"`
	CustomerEmail  string `json:"customer_email"`
}

func (s *billingService) CreateCheckoutSession(ctx context.Context, organizationID uuid.UUID, planID, customerEmail string) (*CheckoutSession, error) {
	if _, ok := PlanByID(planID); !ok {
		return nil, common.Validation("unknown plan %q", planID)
	}

	payload, err := json.Marshal(createCheckoutRequest{
		OrganizationID: organizationID.String(),
		PlanID:         planID,
		CustomerEmail:  customerEmail,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/checkout/sessions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, common.Upstream(err, "billing provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, common.Upstream(fmt.Errorf("billing provider returned %d", resp.StatusCode), "checkout session creation failed")
	}

	session := &CheckoutSession{}
	if err := json.NewDecoder(resp.Body).Decode(session); err != nil {
		return nil, common.Upstream(err, "invalid billing provider response")
	}
	return session, nil
}

// VerifyWebhook checks the HMAC signature before trusting the payload.
func (s *billingService) VerifyWebhook(rawBody []byte, signature string) (*BillingWebhookEvent, error) {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, common.Unauthenticated("invalid webhook signature")
	}

	event := &BillingWebhookEvent{}
	if err := json.Unmarshal(rawBody, event); err != nil {
		return nil, common.Validation("malformed webhook payload")
	}
	return event, nil
}
