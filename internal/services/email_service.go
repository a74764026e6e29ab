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

// EmailSender delivers a rendered email. Implementations never surface
// errors past the dispatcher boundary; the dispatcher records them.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, htmlBody string) error
}

type httpEmailSender struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

// NewHTTPEmailSender talks to a transactional email gateway over HTTP.
func NewHTTPEmailSender(baseURL, apiKey, from string) EmailSender {
	return &httpEmailSender{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type sendEmailRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

func (s *httpEmailSender) SendEmail(ctx context.Context, recipient, subject, htmlBody string) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:     s.from,
		To:       recipient,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewBuffer(payload))
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
		return fmt.Errorf("email gateway returned %d", resp.StatusCode)
	}
	return nil
}

type logEmailSender struct{}

// NewLogEmailSender logs instead of sending. Used in development when
// no gateway is configured.
func NewLogEmailSender() EmailSender {
	return &logEmailSender{}
}

func (s *logEmailSender) SendEmail(ctx context.Context, recipient, subject, htmlBody string) error {
	log.Printf("[EMAIL] To=%s Subject=%q", recipient, subject)
	return nil
}
