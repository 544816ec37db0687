package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inboxlab/message-dispatch/internal/model"
)

type PostgresInboxRepo struct {
	db *sql.DB
}

func NewPostgresInboxRepo(db *sql.DB) *PostgresInboxRepo {
	return &PostgresInboxRepo{db: db}
}

func (r *PostgresInboxRepo) ClaimPending(ctx context.Context, limit int) ([]model.InboxEvent, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, message_id, payload, status, attempts, created_at, updated_at
		FROM inbox_events
		WHERE status = $2
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, limit, string(model.InboxPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.InboxEvent
	for rows.Next() {
		var (
			ev     model.InboxEvent
			status string
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.MessageID,
			&ev.Payload,
			&status,
			&ev.Attempts,
			&ev.CreatedAt,
			&ev.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ev.Status = model.InboxEventStatus(status)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := time.Now().UTC()
	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, `
			UPDATE inbox_events
			SET status = $3, attempts = attempts + 1, updated_at = $2
			WHERE id = $1
		`, ev.ID, now, string(model.InboxProcessing)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for i := range events {
		events[i].Status = model.InboxProcessing
		events[i].Attempts++
		events[i].UpdatedAt = now
	}
	return events, nil
}

func (r *PostgresInboxRepo) MarkDone(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE inbox_events
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, string(model.InboxDone))
	return err
}

func (r *PostgresInboxRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE inbox_events
		SET status = $3,
		    last_error = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, reason, string(model.InboxFailed))
	return err
}

func (r *PostgresInboxRepo) RequeueStale(ctx context.Context, timeout time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inbox_events
		SET status = $2, updated_at = now()
		WHERE status = $3
		  AND updated_at < now() - make_interval(secs => $1)
	`, timeout.Seconds(), string(model.InboxPending), string(model.InboxProcessing))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
