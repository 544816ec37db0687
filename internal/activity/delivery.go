package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inboxlab/message-dispatch/internal/blob"
	"github.com/inboxlab/message-dispatch/internal/client"
	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
)

// DeliveryRef is the small input shipped through the journal; delivery
// activities re-fetch the message, content and notification by id to keep
// the recorded history small.
type DeliveryRef struct {
	MessageID      string `json:"messageId"`
	NotificationID string `json:"notificationId"`
}

type Mailer interface {
	Send(ctx context.Context, msg client.EmailMessage) error
}

type WebhookNotifier interface {
	Notify(ctx context.Context, msg client.WebhookMessage) error
}

// deliveryData is everything a channel delivery needs, re-fetched through
// the shared processing-message lookup.
type deliveryData struct {
	message      *repo.ProcessingMessage
	content      *model.MessageContent
	notification *model.NotificationRecord
}

type deliveryLoader struct {
	messages      repo.MessageRepository
	content       blob.ContentStore
	notifications repo.NotificationRepository
	now           func() time.Time
}

// load fetches the delivery inputs. Any read failure, including not-found,
// returns an error: read-replica lag is expected and self-heals under retry.
// An expired message short-circuits with a nil deliveryData.
func (l *deliveryLoader) load(ctx context.Context, ref DeliveryRef) (*deliveryData, bool, error) {
	msg, err := l.messages.GetMessage(ctx, ref.MessageID)
	if err != nil {
		return nil, false, fmt.Errorf("read message %s: %w", ref.MessageID, err)
	}

	if msg.Meta.IsExpired(l.now()) {
		return nil, true, nil
	}

	content, err := l.content.GetContent(ctx, ref.MessageID)
	if err != nil {
		return nil, false, fmt.Errorf("read content for message %s: %w", ref.MessageID, err)
	}

	notification, err := l.notifications.GetNotification(ctx, ref.MessageID, ref.NotificationID)
	if err != nil {
		return nil, false, fmt.Errorf("read notification %s: %w", ref.NotificationID, err)
	}

	return &deliveryData{message: msg, content: content, notification: notification}, false, nil
}

// EmailDeliveryActivity delivers one message over the email channel.
type EmailDeliveryActivity struct {
	loader deliveryLoader
	mailer Mailer
	log    *slog.Logger
}

func NewEmailDeliveryActivity(
	messages repo.MessageRepository,
	content blob.ContentStore,
	notifications repo.NotificationRepository,
	mailer Mailer,
	log *slog.Logger,
) *EmailDeliveryActivity {
	return &EmailDeliveryActivity{
		loader: deliveryLoader{
			messages:      messages,
			content:       content,
			notifications: notifications,
			now:           time.Now,
		},
		mailer: mailer,
		log:    log,
	}
}

func (a *EmailDeliveryActivity) Run(ctx context.Context, ref DeliveryRef) (*DeliveryResult, error) {
	data, expired, err := a.loader.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if expired {
		a.log.Info("email delivery skipped, message expired", "message_id", ref.MessageID)
		return &DeliveryResult{Kind: KindSuccess, Outcome: DeliveryExpired}, nil
	}

	if data.notification.Email == nil {
		// No destination in the record is a wire-format bug; a retry cannot
		// change it.
		return &DeliveryResult{
			Kind:   KindFailure,
			Reason: ReasonDecodeError,
			Detail: "notification record has no email channel",
		}, nil
	}

	msg := client.EmailMessage{
		To:      data.notification.Email.ToAddress,
		Subject: emailSubject(data.content, data.message.SenderMetadata),
		Text:    emailBody(data.content, data.message.SenderMetadata),
	}
	if err := a.mailer.Send(ctx, msg); err != nil {
		if client.IsTransientError(err) {
			return nil, fmt.Errorf("send email for message %s: %w", ref.MessageID, err)
		}
		a.log.Error("email delivery failed permanently",
			"message_id", ref.MessageID, "notification_id", ref.NotificationID, "error", err)
		return &DeliveryResult{Kind: KindFailure, Reason: ReasonPermanentError, Detail: err.Error()}, nil
	}

	return &DeliveryResult{Kind: KindSuccess, Outcome: DeliveryOK}, nil
}

func emailSubject(content *model.MessageContent, sender model.SenderMetadata) string {
	return fmt.Sprintf("%s - %s", content.Subject, sender.OrganizationName)
}

func emailBody(content *model.MessageContent, sender model.SenderMetadata) string {
	return fmt.Sprintf("%s\n\n--\n%s\n%s\n%s\n",
		content.Markdown,
		sender.OrganizationName,
		sender.DepartmentName,
		sender.ServiceName,
	)
}

// WebhookDeliveryActivity delivers one message over the webhook channel.
type WebhookDeliveryActivity struct {
	loader   deliveryLoader
	notifier WebhookNotifier
	log      *slog.Logger
}

func NewWebhookDeliveryActivity(
	messages repo.MessageRepository,
	content blob.ContentStore,
	notifications repo.NotificationRepository,
	notifier WebhookNotifier,
	log *slog.Logger,
) *WebhookDeliveryActivity {
	return &WebhookDeliveryActivity{
		loader: deliveryLoader{
			messages:      messages,
			content:       content,
			notifications: notifications,
			now:           time.Now,
		},
		notifier: notifier,
		log:      log,
	}
}

func (a *WebhookDeliveryActivity) Run(ctx context.Context, ref DeliveryRef) (*DeliveryResult, error) {
	data, expired, err := a.loader.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if expired {
		a.log.Info("webhook delivery skipped, message expired", "message_id", ref.MessageID)
		return &DeliveryResult{Kind: KindSuccess, Outcome: DeliveryExpired}, nil
	}

	if data.notification.Webhook == nil {
		return &DeliveryResult{
			Kind:   KindFailure,
			Reason: ReasonDecodeError,
			Detail: "notification record has no webhook channel",
		}, nil
	}

	// A sender that requires secure channels gets the generic push: no
	// message content leaves over the webhook.
	msg := client.WebhookMessage{
		FiscalCode:      data.message.Meta.FiscalCode,
		MessageID:       data.message.Meta.ID,
		WebhookEndpoint: data.notification.Webhook.URL,
		Subject:         data.content.Subject,
		Markdown:        data.content.Markdown,
		IncludeContent:  !data.message.SenderMetadata.RequireSecureChannels,
	}
	if err := a.notifier.Notify(ctx, msg); err != nil {
		if client.IsTransientError(err) {
			return nil, fmt.Errorf("notify webhook for message %s: %w", ref.MessageID, err)
		}
		a.log.Error("webhook delivery failed permanently",
			"message_id", ref.MessageID, "notification_id", ref.NotificationID, "error", err)
		return &DeliveryResult{Kind: KindFailure, Reason: ReasonPermanentError, Detail: err.Error()}, nil
	}

	return &DeliveryResult{Kind: KindSuccess, Outcome: DeliveryOK}, nil
}
