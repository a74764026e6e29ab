package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SMSSender delivers a rendered SMS line.
type SMSSender interface {
	SendSMS(ctx context.Context, recipient, message string) error
}

type httpSMSSender struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

// NewHTTPSMSSender talks to an SMS gateway over HTTP.
func NewHTTPSMSSender(baseURL, apiKey, from string) SMSSender {
	return &httpSMSSender{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type sendSMSRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *httpSMSSender) SendSMS(ctx context.Context, recipient, message string) error {
	payload, err := json.Marshal(sendSMSRequest{From: s.from, To: recipient, Body: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/sms", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}

type logSMSSender struct{}

// NewLogSMSSender logs instead of sending, for development.
func NewLogSMSSender() SMSSender {
	return &logSMSSender{}
}

func (s *logSMSSender) SendSMS(ctx context.Context, recipient, message string) error {
	log.Printf("[SMS] To=%s Message=%q", recipient, message)
	return nil
}
