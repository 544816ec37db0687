package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/inboxlab/message-dispatch/internal/model"
)

func TestStatus_UpdateMessageStatus(t *testing.T) {
	t.Parallel()

	statuses := &fakeStatusRepo{}
	a := NewStatusActivity(statuses, testLogger())

	res, err := a.UpdateMessageStatus(context.Background(), MessageStatusInput{
		MessageID: "msg-1",
		Status:    model.MessageStatusProcessed,
	})
	if err != nil {
		t.Fatalf("UpdateMessageStatus() error: %v", err)
	}
	if res.Kind != KindSuccess {
		t.Fatalf("expected SUCCESS, got %+v", res)
	}
	if statuses.messageStatuses["msg-1"] != model.MessageStatusProcessed {
		t.Fatalf("expected PROCESSED recorded, got %+v", statuses.messageStatuses)
	}

	// Re-applying the same status is a no-op in effect.
	if _, err := a.UpdateMessageStatus(context.Background(), MessageStatusInput{
		MessageID: "msg-1",
		Status:    model.MessageStatusProcessed,
	}); err != nil {
		t.Fatalf("second UpdateMessageStatus() error: %v", err)
	}
	if statuses.messageStatuses["msg-1"] != model.MessageStatusProcessed {
		t.Fatalf("status changed on re-apply: %+v", statuses.messageStatuses)
	}
}

func TestStatus_UpdateMessageStatus_BadInput(t *testing.T) {
	t.Parallel()

	a := NewStatusActivity(&fakeStatusRepo{}, testLogger())

	res, err := a.UpdateMessageStatus(context.Background(), MessageStatusInput{})
	if err != nil {
		t.Fatalf("UpdateMessageStatus() error: %v", err)
	}
	if res.Kind != KindFailure || res.Reason != ReasonDecodeError {
		t.Fatalf("expected FAILURE/DECODE_ERROR, got %+v", res)
	}
}

func TestStatus_UpdateMessageStatus_WriteErrorRaises(t *testing.T) {
	t.Parallel()

	a := NewStatusActivity(&fakeStatusRepo{msgErr: errors.New("db down")}, testLogger())

	_, err := a.UpdateMessageStatus(context.Background(), MessageStatusInput{
		MessageID: "msg-1",
		Status:    model.MessageStatusFailed,
	})
	if err == nil {
		t.Fatalf("expected error when the upsert fails")
	}
}

func TestStatus_UpdateChannelStatus(t *testing.T) {
	t.Parallel()

	statuses := &fakeStatusRepo{}
	a := NewStatusActivity(statuses, testLogger())

	in := ChannelStatusInput{
		MessageID:      "msg-1",
		NotificationID: "ntf-1",
		Channel:        model.ChannelWebhook,
		Status:         model.ChannelStatusSent,
	}

	for i := 0; i < 2; i++ {
		res, err := a.UpdateChannelStatus(context.Background(), in)
		if err != nil {
			t.Fatalf("UpdateChannelStatus() #%d error: %v", i+1, err)
		}
		if res.Kind != KindSuccess {
			t.Fatalf("expected SUCCESS, got %+v", res)
		}
	}

	if len(statuses.channelStatuses) != 1 {
		t.Fatalf("expected one channel status row after re-apply, got %d", len(statuses.channelStatuses))
	}
	rec := statuses.channelStatuses[0]
	if rec.Channel != model.ChannelWebhook || rec.Status != model.ChannelStatusSent {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestStatus_UpdateChannelStatus_BadInput(t *testing.T) {
	t.Parallel()

	a := NewStatusActivity(&fakeStatusRepo{}, testLogger())

	res, err := a.UpdateChannelStatus(context.Background(), ChannelStatusInput{MessageID: "msg-1"})
	if err != nil {
		t.Fatalf("UpdateChannelStatus() error: %v", err)
	}
	if res.Kind != KindFailure || res.Reason != ReasonDecodeError {
		t.Fatalf("expected FAILURE/DECODE_ERROR, got %+v", res)
	}
}
