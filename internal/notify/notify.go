// Package notify delivers contact-form submissions to the site owner's inbox
// via the Resend transactional email API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer sends a single plain-text email. Tests inject a fake.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// ResendMailer is a Mailer backed by the Resend HTTP API.
type ResendMailer struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

// NewResendMailer constructs a ResendMailer. from is the verified sender
// address; baseURL overrides the API endpoint (empty means the public API).
func NewResendMailer(apiKey, from, baseURL string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("notify: RESEND_API_KEY is not set")
	}
	if from == "" {
		return nil, fmt.Errorf("notify: sender address is required")
	}
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &ResendMailer{
		apiKey:  apiKey,
		baseURL: baseURL,
		from:    from,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}

// Send posts one email to the /emails endpoint.
func (m *ResendMailer) Send(ctx context.Context, to, subject, text string) error {
	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("notify: resend API error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("notify: resend API returned status %d", resp.StatusCode)
	}
	return nil
}
