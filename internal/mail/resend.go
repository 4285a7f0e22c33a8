package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultResendURL is the Resend REST API base.
const DefaultResendURL = "https://api.resend.com"

// ErrNotConfigured is returned when the API key or sender address is missing.
var ErrNotConfigured = errors.New("mail relay not configured")

// ResendSender delivers mail through the Resend /emails endpoint.
type ResendSender struct {
	APIKey  string
	From    string
	BaseURL string // defaults to DefaultResendURL
	Client  *http.Client
}

// NewResendSender returns a sender with a 10s request timeout.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		APIKey:  apiKey,
		From:    from,
		BaseURL: DefaultResendURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("resend: HTTP %d: %s", e.StatusCode, e.Message)
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = s.From
	}
	if s.APIKey == "" || from == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(resendRequest{From: from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	base := s.BaseURL
	if base == "" {
		base = DefaultResendURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := gjson.GetBytes(respBody, "message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &ProviderError{StatusCode: resp.StatusCode, Message: message}
	}
	if !gjson.GetBytes(respBody, "id").Exists() {
		return fmt.Errorf("resend: response carries no message id")
	}
	return nil
}
