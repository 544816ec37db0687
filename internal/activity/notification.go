package activity

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
)

// NotificationActivity decides which channels are eligible and creates the
// durable notification record. When neither channel is eligible it returns
// the "none" tag: legitimately nothing to deliver, not a failure.
type NotificationActivity struct {
	notifications repo.NotificationRepository
	senderRefs    repo.SenderReferenceRepository
	webhookURL    string
	now           func() time.Time
	log           *slog.Logger
}

func NewNotificationActivity(
	notifications repo.NotificationRepository,
	senderRefs repo.SenderReferenceRepository,
	webhookURL string,
	log *slog.Logger,
) *NotificationActivity {
	return &NotificationActivity{
		notifications: notifications,
		senderRefs:    senderRefs,
		webhookURL:    webhookURL,
		now:           time.Now,
		log:           log,
	}
}

func (a *NotificationActivity) Run(ctx context.Context, ev *model.CreatedMessageEvent, stored *ContentStoreResult) (*NotificationResult, error) {
	profile := stored.Profile
	if profile == nil {
		return nil, fmt.Errorf("content store result for message %s carries no profile", ev.Message.ID)
	}

	var (
		email   *model.EmailNotification
		webhook *model.WebhookNotification
	)

	emailBlocked := slices.Contains(stored.BlockedChannels, model.BlockedEmail)
	if !emailBlocked && profile.Email != "" {
		email = &model.EmailNotification{
			ToAddress:     profile.Email,
			AddressSource: model.AddressSourceProfile,
		}
	}

	webhookBlocked := slices.Contains(stored.BlockedChannels, model.BlockedWebhook)
	if !webhookBlocked && profile.IsWebhookEnabled {
		webhook = &model.WebhookNotification{URL: a.webhookURL}
	}

	if email == nil && webhook == nil {
		a.log.Info("no eligible channels",
			"message_id", ev.Message.ID, "fiscal_code", ev.Message.FiscalCode)
		return &NotificationResult{Tag: NotificationNone}, nil
	}

	record := &model.NotificationRecord{
		ID:         uuid.NewString(),
		MessageID:  ev.Message.ID,
		FiscalCode: ev.Message.FiscalCode,
		Email:      email,
		Webhook:    webhook,
		CreatedAt:  a.now().UTC(),
	}

	if err := a.notifications.CreateNotification(ctx, record); err != nil {
		return nil, fmt.Errorf("create notification for message %s: %w", ev.Message.ID, err)
	}
	if err := a.senderRefs.SaveSenderReference(ctx, ev.Message.FiscalCode, ev.Message.SenderServiceID); err != nil {
		return nil, fmt.Errorf("save sender reference for message %s: %w", ev.Message.ID, err)
	}

	return &NotificationResult{
		Tag:          NotificationSome,
		HasEmail:     email != nil,
		HasWebhook:   webhook != nil,
		Notification: record,
	}, nil
}
