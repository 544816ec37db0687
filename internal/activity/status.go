package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
)

type MessageStatusInput struct {
	MessageID string              `json:"messageId"`
	Status    model.MessageStatus `json:"status"`
}

type ChannelStatusInput struct {
	MessageID      string              `json:"messageId"`
	NotificationID string              `json:"notificationId"`
	Channel        model.Channel       `json:"channel"`
	Status         model.ChannelStatus `json:"status"`
}

// StatusActivity performs the idempotent status upserts. A malformed input
// is a terminal FAILURE for that call; a failing write returns an error so
// the retry policy covers transient store unavailability.
type StatusActivity struct {
	statuses repo.StatusRepository
	log      *slog.Logger
}

func NewStatusActivity(statuses repo.StatusRepository, log *slog.Logger) *StatusActivity {
	return &StatusActivity{statuses: statuses, log: log}
}

func (a *StatusActivity) UpdateMessageStatus(ctx context.Context, in MessageStatusInput) (*StatusResult, error) {
	if in.MessageID == "" || in.Status == "" {
		a.log.Error("message status update rejected", "input", fmt.Sprintf("%+v", in))
		return &StatusResult{Kind: KindFailure, Reason: ReasonDecodeError}, nil
	}
	if err := a.statuses.UpsertMessageStatus(ctx, in.MessageID, in.Status); err != nil {
		return nil, fmt.Errorf("upsert status %s for message %s: %w", in.Status, in.MessageID, err)
	}
	return &StatusResult{Kind: KindSuccess}, nil
}

func (a *StatusActivity) UpdateChannelStatus(ctx context.Context, in ChannelStatusInput) (*StatusResult, error) {
	if in.MessageID == "" || in.NotificationID == "" || in.Channel == "" || in.Status == "" {
		a.log.Error("channel status update rejected", "input", fmt.Sprintf("%+v", in))
		return &StatusResult{Kind: KindFailure, Reason: ReasonDecodeError}, nil
	}
	rec := model.ChannelStatusRecord{
		MessageID:      in.MessageID,
		NotificationID: in.NotificationID,
		Channel:        in.Channel,
		Status:         in.Status,
	}
	if err := a.statuses.UpsertChannelStatus(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert %s status for notification %s: %w", in.Channel, in.NotificationID, err)
	}
	return &StatusResult{Kind: KindSuccess}, nil
}
