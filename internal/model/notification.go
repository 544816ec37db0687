package model

import "time"

// AddressSource records where a channel destination came from, for audit.
// Eligibility requires a profile address, so that is the only value produced.
type AddressSource string

const AddressSourceProfile AddressSource = "PROFILE_ADDRESS"

type EmailNotification struct {
	ToAddress     string        `json:"toAddress"`
	AddressSource AddressSource `json:"addressSource"`
}

type WebhookNotification struct {
	URL string `json:"url"`
}

// NotificationRecord is created once per message with only the eligible
// channels populated. Immutable after creation; per-channel statuses live in
// their own records.
type NotificationRecord struct {
	ID         string               `json:"id"`
	MessageID  string               `json:"messageId"`
	FiscalCode string               `json:"fiscalCode"`
	Email      *EmailNotification   `json:"email,omitempty"`
	Webhook    *WebhookNotification `json:"webhook,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}
