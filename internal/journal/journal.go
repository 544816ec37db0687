package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Store persists one recorded activity result per (run id, step id). A
// recorded step is complete: replays read the result back instead of running
// the activity again.
type Store interface {
	Lookup(ctx context.Context, runID, stepID string) ([]byte, bool, error)
	Record(ctx context.Context, runID, stepID string, result []byte) error
}

// RetryPolicy is the uniform per-step policy: fixed interval, fixed attempt
// budget, identical for every step.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

var ErrRetriesExhausted = errors.New("activity retries exhausted")

// Executor is the replay-safe call primitive. Every activity invocation goes
// through Call; direct side effects inside an orchestration body are not
// allowed.
type Executor struct {
	store  Store
	policy RetryPolicy
	log    *slog.Logger
}

func NewExecutor(store Store, policy RetryPolicy, log *slog.Logger) *Executor {
	return &Executor{store: store, policy: policy, log: log}
}

// Call runs fn at most once per (runID, stepID). If a result is already
// recorded it is returned as-is without re-executing the activity. Otherwise
// fn is retried on error up to the attempt budget; the marshaled result of a
// successful run is recorded before it is returned.
func (e *Executor) Call(ctx context.Context, runID, stepID string, fn func(context.Context) (any, error)) ([]byte, error) {
	recorded, ok, err := e.store.Lookup(ctx, runID, stepID)
	if err != nil {
		return nil, fmt.Errorf("journal lookup %s/%s: %w", runID, stepID, err)
	}
	if ok {
		e.log.Debug("replaying recorded step", "run_id", runID, "step", stepID)
		return recorded, nil
	}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			raw, err := json.Marshal(out)
			if err != nil {
				return nil, fmt.Errorf("marshal result of %s/%s: %w", runID, stepID, err)
			}
			if err := e.store.Record(ctx, runID, stepID, raw); err != nil {
				return nil, fmt.Errorf("journal record %s/%s: %w", runID, stepID, err)
			}
			return raw, nil
		}

		lastErr = err
		e.log.Warn("activity attempt failed",
			"run_id", runID,
			"step", stepID,
			"attempt", attempt,
			"max_attempts", e.policy.MaxAttempts,
			"error", err,
		)

		if attempt < e.policy.MaxAttempts {
			if err := sleep(ctx, e.policy.Interval); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: step %s after %d attempts: %w", ErrRetriesExhausted, stepID, e.policy.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
