package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresMessageRepo struct {
	db *sql.DB
}

func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func (r *PostgresMessageRepo) GetMessage(ctx context.Context, messageID string) (*ProcessingMessage, error) {
	var (
		m          ProcessingMessage
		senderJSON []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, fiscal_code, sender_service_id, sender_user_id,
		       created_at, time_to_live_seconds, is_pending, sender_metadata
		FROM messages
		WHERE id = $1
	`, messageID).Scan(
		&m.Meta.ID,
		&m.Meta.FiscalCode,
		&m.Meta.SenderServiceID,
		&m.Meta.SenderUserID,
		&m.Meta.CreatedAt,
		&m.Meta.TimeToLiveSeconds,
		&m.Meta.IsPending,
		&senderJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(senderJSON) > 0 {
		if err := json.Unmarshal(senderJSON, &m.SenderMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode sender_metadata for %s: %w", messageID, err)
		}
	}
	return &m, nil
}

func (r *PostgresMessageRepo) SetNotPending(ctx context.Context, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_pending = false,
		    updated_at = now()
		WHERE id = $1
	`, messageID)
	return err
}
