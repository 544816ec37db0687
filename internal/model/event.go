package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreatedMessageEvent is the immutable input of a delivery run. It is created
// once by the message-ingestion API and never mutated afterwards.
type CreatedMessageEvent struct {
	Content        MessageContent `json:"content"`
	Message        MessageMeta    `json:"message"`
	SenderMetadata SenderMetadata `json:"senderMetadata"`
	ServiceVersion int            `json:"serviceVersion"`
}

type MessageContent struct {
	Subject     string       `json:"subject"`
	Markdown    string       `json:"markdown"`
	PaymentData *PaymentData `json:"payment_data,omitempty"`
}

type PaymentData struct {
	Amount       int64  `json:"amount"`
	NoticeNumber string `json:"notice_number"`
}

type MessageMeta struct {
	ID                string    `json:"id"`
	FiscalCode        string    `json:"fiscalCode"`
	SenderServiceID   string    `json:"senderServiceId"`
	SenderUserID      string    `json:"senderUserId"`
	CreatedAt         time.Time `json:"createdAt"`
	TimeToLiveSeconds int64     `json:"timeToLiveSeconds"`
	IsPending         bool      `json:"isPending"`
}

type SenderMetadata struct {
	DepartmentName         string `json:"departmentName"`
	OrganizationFiscalCode string `json:"organizationFiscalCode"`
	OrganizationName       string `json:"organizationName"`
	RequireSecureChannels  bool   `json:"requireSecureChannels"`
	ServiceName            string `json:"serviceName"`
	ServiceUserEmail       string `json:"serviceUserEmail"`
}

// IsExpired reports whether the message's time-to-live has elapsed at now.
func (m MessageMeta) IsExpired(now time.Time) bool {
	return now.Sub(m.CreatedAt) > time.Duration(m.TimeToLiveSeconds)*time.Second
}

var ErrInvalidEvent = errors.New("invalid created message event")

// DecodeCreatedMessageEvent unmarshals and validates a raw event document.
// A decode failure here is permanent: malformed input can never succeed on a
// re-run.
func DecodeCreatedMessageEvent(raw []byte) (*CreatedMessageEvent, error) {
	var ev CreatedMessageEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	switch {
	case ev.Message.ID == "":
		return nil, fmt.Errorf("%w: missing message id", ErrInvalidEvent)
	case ev.Message.FiscalCode == "":
		return nil, fmt.Errorf("%w: missing fiscal code", ErrInvalidEvent)
	case ev.Message.SenderServiceID == "":
		return nil, fmt.Errorf("%w: missing sender service id", ErrInvalidEvent)
	case ev.Message.CreatedAt.IsZero():
		return nil, fmt.Errorf("%w: missing createdAt", ErrInvalidEvent)
	case ev.Message.TimeToLiveSeconds <= 0:
		return nil, fmt.Errorf("%w: timeToLiveSeconds must be > 0", ErrInvalidEvent)
	case ev.Content.Subject == "":
		return nil, fmt.Errorf("%w: missing content subject", ErrInvalidEvent)
	case ev.Content.Markdown == "":
		return nil, fmt.Errorf("%w: missing content markdown", ErrInvalidEvent)
	}
	return &ev, nil
}
