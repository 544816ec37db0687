package repo

import (
	"context"
	"errors"
	"time"

	"github.com/inboxlab/message-dispatch/internal/model"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrPreferenceNotFound   = errors.New("service preference not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, fiscalCode string) (*model.Profile, error)
}

type PreferenceRepository interface {
	GetServicePreference(ctx context.Context, fiscalCode, serviceID string, version int) (*model.ServicePreference, error)
}

// ProcessingMessage is the shared lookup delivery activities use instead of
// having the full event shipped through the journal.
type ProcessingMessage struct {
	Meta           model.MessageMeta
	SenderMetadata model.SenderMetadata
}

type MessageRepository interface {
	GetMessage(ctx context.Context, messageID string) (*ProcessingMessage, error)
	// SetNotPending makes the message externally visible. Idempotent.
	SetNotPending(ctx context.Context, messageID string) error
}

type NotificationRepository interface {
	// CreateNotification inserts the record; re-inserting the same id is a
	// no-op.
	CreateNotification(ctx context.Context, n *model.NotificationRecord) error
	GetNotification(ctx context.Context, messageID, notificationID string) (*model.NotificationRecord, error)
}

type StatusRepository interface {
	UpsertMessageStatus(ctx context.Context, messageID string, status model.MessageStatus) error
	GetMessageStatus(ctx context.Context, messageID string) (*model.MessageStatusRecord, error)
	UpsertChannelStatus(ctx context.Context, rec model.ChannelStatusRecord) error
	ListChannelStatuses(ctx context.Context, messageID string) ([]model.ChannelStatusRecord, error)
}

type SenderReferenceRepository interface {
	// SaveSenderReference records that serviceID has messaged fiscalCode, for
	// audit reads. Idempotent.
	SaveSenderReference(ctx context.Context, fiscalCode, serviceID string) error
}

type InboxRepository interface {
	ClaimPending(ctx context.Context, limit int) ([]model.InboxEvent, error)
	MarkDone(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	// RequeueStale returns processing rows older than the timeout to pending
	// so a crashed run is picked up again.
	RequeueStale(ctx context.Context, timeout time.Duration) (int64, error)
}
