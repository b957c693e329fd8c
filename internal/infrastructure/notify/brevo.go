package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const brevoSendURL = "https://api.brevo.com/v3/smtp/email"

// EmailSender delivers transactional email to a single recipient.
type EmailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlContent, textContent string) error
}

// BrevoSender sends transactional email through the Brevo HTTP API.
type BrevoSender struct {
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
	logger    *zap.Logger
}

// NewBrevoSender creates a new Brevo email sender
func NewBrevoSender(apiKey, fromEmail, fromName string, logger *zap.Logger) *BrevoSender {
	return &BrevoSender{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

type emailRequest struct {
	Sender      emailAddress   `json:"sender"`
	To          []emailAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent"`
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Send delivers one email via the Brevo API.
func (s *BrevoSender) Send(ctx context.Context, toEmail, toName, subject, htmlContent, textContent string) error {
	req := emailRequest{
		Sender: emailAddress{
			Email: s.fromEmail,
			Name:  s.fromName,
		},
		To:          []emailAddress{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: htmlContent,
		TextContent: textContent,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoSendURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
	}

	return nil
}
