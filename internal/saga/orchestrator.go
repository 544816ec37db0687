package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inboxlab/message-dispatch/internal/activity"
	"github.com/inboxlab/message-dispatch/internal/journal"
	"github.com/inboxlab/message-dispatch/internal/model"
)

// Step ids are the journal identity of each activity call. A re-run of the
// same message replays recorded steps instead of re-executing them, so every
// side effect lives behind exactly one of these.
const (
	stepContentStore           = "content-store"
	stepCreateNotification     = "create-notification"
	stepDeliverEmail           = "deliver-email"
	stepDeliverWebhook         = "deliver-webhook"
	stepStatusEmailSent        = "status-email-sent"
	stepStatusWebhookSent      = "status-webhook-sent"
	stepStatusMessageProcessed = "status-message-processed"
	stepStatusMessageRejected  = "status-message-rejected"
	stepStatusMessageFailed    = "status-message-failed"
)

type Outcome string

const (
	// OutcomeFinalized: the main path ran to its end.
	OutcomeFinalized Outcome = "finalized"
	// OutcomeAborted: a permanent early exit (undecodable input or result,
	// rejected content, nothing to deliver beyond rejection).
	OutcomeAborted Outcome = "aborted"
	// OutcomeFailed: a step exhausted its retry budget; FAILED was written
	// best-effort.
	OutcomeFailed Outcome = "failed"
	// OutcomeInvalid: the input event itself was undecodable; nothing ran.
	OutcomeInvalid Outcome = "invalid"
)

// Orchestrator sequences the delivery saga. Its body is safe to re-run from
// the start at any time: all side effects go through the executor's
// replay-safe Call.
type Orchestrator struct {
	exec         *journal.Executor
	contentStore *activity.ContentStoreActivity
	notification *activity.NotificationActivity
	email        *activity.EmailDeliveryActivity
	webhook      *activity.WebhookDeliveryActivity
	status       *activity.StatusActivity
	log          *slog.Logger
}

func New(
	exec *journal.Executor,
	contentStore *activity.ContentStoreActivity,
	notification *activity.NotificationActivity,
	email *activity.EmailDeliveryActivity,
	webhook *activity.WebhookDeliveryActivity,
	status *activity.StatusActivity,
	log *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		exec:         exec,
		contentStore: contentStore,
		notification: notification,
		email:        email,
		webhook:      webhook,
		status:       status,
		log:          log,
	}
}

// Run drives one created-message event to a terminal state.
func (o *Orchestrator) Run(ctx context.Context, rawEvent []byte) Outcome {
	ev, err := model.DecodeCreatedMessageEvent(rawEvent)
	if err != nil {
		// Malformed input can never succeed on a re-run.
		o.log.Error("aborting: undecodable created message event", "error", err)
		return OutcomeInvalid
	}

	runID := ev.Message.ID
	log := o.log.With(
		"message_id", runID,
		"fiscal_code", ev.Message.FiscalCode,
		"service_id", ev.Message.SenderServiceID,
	)

	outcome, err := o.run(ctx, runID, ev, log)
	if err != nil {
		log.Error("delivery run failed", "error", err)
		// Best effort: the retry budget is already spent somewhere, so a
		// failure here is logged and nothing more.
		if serr := o.writeMessageStatus(ctx, runID, stepStatusMessageFailed, model.MessageStatusFailed); serr != nil {
			log.Error("failed to record FAILED status", "error", serr)
		}
		return OutcomeFailed
	}
	return outcome
}

func (o *Orchestrator) run(ctx context.Context, runID string, ev *model.CreatedMessageEvent, log *slog.Logger) (Outcome, error) {
	stored, decodeOK, err := callContentStore(ctx, o.exec, runID, o.contentStore, ev)
	if err != nil {
		return "", err
	}
	if !decodeOK {
		// Without a readable content outcome there is no safe status to
		// write.
		log.Error("aborting: cannot decode content store result", "step", stepContentStore)
		return OutcomeAborted, nil
	}
	if stored.Kind == activity.KindFailure {
		log.Info("content rejected", "step", stepContentStore, "reason", stored.Reason)
		if err := o.writeMessageStatus(ctx, runID, stepStatusMessageRejected, model.MessageStatusRejected); err != nil {
			return "", err
		}
		return OutcomeAborted, nil
	}

	created, decodeOK, err := callCreateNotification(ctx, o.exec, runID, o.notification, ev, stored)
	if err != nil {
		return "", err
	}
	if !decodeOK {
		log.Error("aborting: cannot decode notification result", "step", stepCreateNotification)
		return OutcomeAborted, nil
	}
	if created.Tag == activity.NotificationNone {
		log.Info("finalized with no eligible channels", "step", stepCreateNotification)
		return OutcomeFinalized, nil
	}

	ref := activity.DeliveryRef{
		MessageID:      runID,
		NotificationID: created.Notification.ID,
	}

	// The two channels are independent: one channel's exhausted retries must
	// not keep the other from its attempt, nor block finalization.
	var wg sync.WaitGroup
	if created.HasEmail {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.deliverChannel(ctx, runID, model.ChannelEmail, ref, log)
		}()
	}
	if created.HasWebhook {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.deliverChannel(ctx, runID, model.ChannelWebhook, ref, log)
		}()
	}
	wg.Wait()

	if err := o.writeMessageStatus(ctx, runID, stepStatusMessageProcessed, model.MessageStatusProcessed); err != nil {
		return "", err
	}

	log.Info("delivery finalized",
		"has_email", created.HasEmail,
		"has_webhook", created.HasWebhook,
	)
	return OutcomeFinalized, nil
}

// deliverChannel is one channel's isolated try region: every failure in here
// is logged and swallowed.
func (o *Orchestrator) deliverChannel(ctx context.Context, runID string, ch model.Channel, ref activity.DeliveryRef, log *slog.Logger) {
	deliverStep, statusStep := stepDeliverEmail, stepStatusEmailSent
	if ch == model.ChannelWebhook {
		deliverStep, statusStep = stepDeliverWebhook, stepStatusWebhookSent
	}

	raw, err := o.exec.Call(ctx, runID, deliverStep, func(ctx context.Context) (any, error) {
		switch ch {
		case model.ChannelEmail:
			return o.email.Run(ctx, ref)
		default:
			return o.webhook.Run(ctx, ref)
		}
	})
	if err != nil {
		log.Error("channel delivery exhausted retries", "channel", ch, "step", deliverStep, "error", err)
		return
	}

	var res activity.DeliveryResult
	if err := json.Unmarshal(raw, &res); err != nil || (res.Kind != activity.KindSuccess && res.Kind != activity.KindFailure) {
		log.Error("cannot decode delivery result", "channel", ch, "step", deliverStep)
		return
	}

	switch {
	case res.Kind == activity.KindFailure:
		log.Error("channel delivery failed permanently",
			"channel", ch, "step", deliverStep, "reason", res.Reason, "detail", res.Detail)
	case res.Outcome == activity.DeliveryExpired:
		log.Info("channel delivery skipped, message expired", "channel", ch, "step", deliverStep)
	default:
		// Delivery already happened; recording SENT is best effort.
		_, err := o.exec.Call(ctx, runID, statusStep, func(ctx context.Context) (any, error) {
			return o.status.UpdateChannelStatus(ctx, activity.ChannelStatusInput{
				MessageID:      ref.MessageID,
				NotificationID: ref.NotificationID,
				Channel:        ch,
				Status:         model.ChannelStatusSent,
			})
		})
		if err != nil {
			log.Error("failed to record SENT status", "channel", ch, "step", statusStep, "error", err)
			return
		}
		log.Info("channel delivered", "channel", ch, "step", deliverStep)
	}
}

func (o *Orchestrator) writeMessageStatus(ctx context.Context, runID, stepID string, status model.MessageStatus) error {
	raw, err := o.exec.Call(ctx, runID, stepID, func(ctx context.Context) (any, error) {
		return o.status.UpdateMessageStatus(ctx, activity.MessageStatusInput{
			MessageID: runID,
			Status:    status,
		})
	})
	if err != nil {
		return err
	}

	var res activity.StatusResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("decode status result for step %s: %w", stepID, err)
	}
	if res.Kind != activity.KindSuccess {
		return fmt.Errorf("status update %s rejected: %s", stepID, res.Reason)
	}
	return nil
}

func callContentStore(ctx context.Context, exec *journal.Executor, runID string, a *activity.ContentStoreActivity, ev *model.CreatedMessageEvent) (*activity.ContentStoreResult, bool, error) {
	raw, err := exec.Call(ctx, runID, stepContentStore, func(ctx context.Context) (any, error) {
		return a.Run(ctx, ev)
	})
	if err != nil {
		return nil, false, err
	}

	var res activity.ContentStoreResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, nil
	}
	if res.Kind != activity.KindSuccess && res.Kind != activity.KindFailure {
		return nil, false, nil
	}
	return &res, true, nil
}

func callCreateNotification(ctx context.Context, exec *journal.Executor, runID string, a *activity.NotificationActivity, ev *model.CreatedMessageEvent, stored *activity.ContentStoreResult) (*activity.NotificationResult, bool, error) {
	raw, err := exec.Call(ctx, runID, stepCreateNotification, func(ctx context.Context) (any, error) {
		return a.Run(ctx, ev, stored)
	})
	if err != nil {
		return nil, false, err
	}

	var res activity.NotificationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, nil
	}
	switch res.Tag {
	case activity.NotificationNone:
		return &res, true, nil
	case activity.NotificationSome:
		if res.Notification == nil || res.Notification.ID == "" {
			return nil, false, nil
		}
		return &res, true, nil
	default:
		return nil, false, nil
	}
}
