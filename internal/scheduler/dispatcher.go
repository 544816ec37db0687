package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/inboxlab/message-dispatch/internal/repo"
	"github.com/inboxlab/message-dispatch/internal/saga"
)

// Runner is the orchestration entry point the dispatcher feeds events into.
type Runner interface {
	Run(ctx context.Context, rawEvent []byte) saga.Outcome
}

// Dispatcher is the trigger side of the saga: each tick requeues stale
// in-flight rows (the crash re-entry path), claims a batch of pending
// created-message events and runs one orchestration per event.
type Dispatcher struct {
	inbox        repo.InboxRepository
	runner       Runner
	batchSize    int
	staleTimeout time.Duration
	log          *slog.Logger
}

func NewDispatcher(inbox repo.InboxRepository, runner Runner, batchSize int, staleTimeout time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		inbox:        inbox,
		runner:       runner,
		batchSize:    batchSize,
		staleTimeout: staleTimeout,
		log:          log,
	}
}

func (d *Dispatcher) Tick(ctx context.Context) {
	requeued, err := d.inbox.RequeueStale(ctx, d.staleTimeout)
	if err != nil {
		d.log.Error("failed to requeue stale events", "error", err)
	} else if requeued > 0 {
		d.log.Info("requeued stale events", "count", requeued)
	}

	events, err := d.inbox.ClaimPending(ctx, d.batchSize)
	if err != nil {
		d.log.Error("failed to claim pending events", "error", err)
		return
	}

	for _, ev := range events {
		outcome := d.runner.Run(ctx, ev.Payload)

		switch outcome {
		case saga.OutcomeInvalid:
			if err := d.inbox.MarkFailed(ctx, ev.ID, "undecodable event payload"); err != nil {
				d.log.Error("failed to mark event failed", "event_id", ev.ID, "error", err)
			}
		case saga.OutcomeFailed:
			if err := d.inbox.MarkFailed(ctx, ev.ID, "retry budget exhausted"); err != nil {
				d.log.Error("failed to mark event failed", "event_id", ev.ID, "error", err)
			}
		default:
			if err := d.inbox.MarkDone(ctx, ev.ID); err != nil {
				d.log.Error("failed to mark event done", "event_id", ev.ID, "error", err)
			}
		}

		d.log.Info("event dispatched",
			"event_id", ev.ID,
			"message_id", ev.MessageID,
			"outcome", string(outcome),
		)
	}
}
