package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type WebhookClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewWebhookClient(url, apiKey string) *WebhookClient {
	return &WebhookClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WebhookMessage is one push notification. When IncludeContent is false the
// payload carries no subject or body, only the message reference (senders
// that require secure channels get the generic form).
type WebhookMessage struct {
	FiscalCode      string
	MessageID       string
	WebhookEndpoint string
	Subject         string
	Markdown        string
	IncludeContent  bool
}

type webhookPayload struct {
	FiscalCode       string `json:"fiscal_code"`
	MessageID        string `json:"message_id"`
	NotificationType string `json:"notification_type"`
	WebhookEndpoint  string `json:"webhookEndpoint"`
	Subject          string `json:"subject,omitempty"`
	Markdown         string `json:"markdown,omitempty"`
}

const (
	notificationTypeMessage = "MESSAGE"
	notificationTypeGeneric = "GENERIC_MESSAGE"
)

// Notify POSTs the notification to the configured endpoint and expects a
// 204. Network failures and 5xx responses come back as transient errors,
// any other non-204 as permanent.
func (c *WebhookClient) Notify(ctx context.Context, msg WebhookMessage) error {
	payload := webhookPayload{
		FiscalCode:       msg.FiscalCode,
		MessageID:        msg.MessageID,
		NotificationType: notificationTypeGeneric,
		WebhookEndpoint:  msg.WebhookEndpoint,
	}
	if msg.IncludeContent {
		payload.NotificationType = notificationTypeMessage
		payload.Subject = msg.Subject
		payload.Markdown = msg.Markdown
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Transient(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= 500:
		return Transient(fmt.Errorf("webhook endpoint returned %d body=%q", resp.StatusCode, string(body)))
	default:
		return fmt.Errorf("webhook endpoint returned %d body=%q", resp.StatusCode, string(body))
	}
}
