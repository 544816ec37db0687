package activity

import "github.com/inboxlab/message-dispatch/internal/model"

// Activities return tagged results for expected business outcomes and return
// an error only for transient infrastructure failures, which is the signal
// the orchestrator's retry policy reacts to.

type Kind string

const (
	KindSuccess Kind = "SUCCESS"
	KindFailure Kind = "FAILURE"
)

type FailureReason string

const (
	ReasonProfileNotFound     FailureReason = "PROFILE_NOT_FOUND"
	ReasonMasterInboxDisabled FailureReason = "MASTER_INBOX_DISABLED"
	ReasonSenderBlocked       FailureReason = "SENDER_BLOCKED"
	ReasonDecodeError         FailureReason = "DECODE_ERROR"
	ReasonPermanentError      FailureReason = "PERMANENT_ERROR"
)

type ContentStoreResult struct {
	Kind   Kind          `json:"kind"`
	Reason FailureReason `json:"reason,omitempty"`

	// BlockedChannels is the resolved block list as a list: it is a set, but
	// it crosses the journal's serialization boundary.
	BlockedChannels []model.BlockedInboxOrChannel `json:"blockedChannels,omitempty"`
	// Profile is a snapshot so downstream steps don't re-read it.
	Profile *model.Profile `json:"profile,omitempty"`
}

type NotificationTag string

const (
	NotificationNone NotificationTag = "none"
	NotificationSome NotificationTag = "some"
)

type NotificationResult struct {
	Tag          NotificationTag           `json:"tag"`
	HasEmail     bool                      `json:"hasEmail,omitempty"`
	HasWebhook   bool                      `json:"hasWebhook,omitempty"`
	Notification *model.NotificationRecord `json:"notification,omitempty"`
}

type DeliveryOutcome string

const (
	DeliveryOK      DeliveryOutcome = "OK"
	DeliveryExpired DeliveryOutcome = "EXPIRED"
)

type DeliveryResult struct {
	Kind    Kind            `json:"kind"`
	Outcome DeliveryOutcome `json:"outcome,omitempty"`
	Reason  FailureReason   `json:"reason,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

type StatusResult struct {
	Kind   Kind          `json:"kind"`
	Reason FailureReason `json:"reason,omitempty"`
}
