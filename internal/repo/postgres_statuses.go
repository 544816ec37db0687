package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inboxlab/message-dispatch/internal/model"
)

type PostgresStatusRepo struct {
	db *sql.DB
}

func NewPostgresStatusRepo(db *sql.DB) *PostgresStatusRepo {
	return &PostgresStatusRepo{db: db}
}

func (r *PostgresStatusRepo) UpsertMessageStatus(ctx context.Context, messageID string, status model.MessageStatus) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_statuses (message_id, status, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (message_id) DO UPDATE
		SET status = EXCLUDED.status,
		    updated_at = now()
	`, messageID, string(status))
	return err
}

func (r *PostgresStatusRepo) GetMessageStatus(ctx context.Context, messageID string) (*model.MessageStatusRecord, error) {
	var (
		rec    model.MessageStatusRecord
		status string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT message_id, status, updated_at
		FROM message_statuses
		WHERE message_id = $1
	`, messageID).Scan(&rec.MessageID, &status, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// No record yet means the message is accepted but not finalized.
		return &model.MessageStatusRecord{
			MessageID: messageID,
			Status:    model.MessageStatusAccepted,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Status = model.MessageStatus(status)
	return &rec, nil
}

func (r *PostgresStatusRepo) UpsertChannelStatus(ctx context.Context, rec model.ChannelStatusRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_statuses (message_id, notification_id, channel, status, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (message_id, notification_id, channel) DO UPDATE
		SET status = EXCLUDED.status,
		    updated_at = now()
	`, rec.MessageID, rec.NotificationID, string(rec.Channel), string(rec.Status))
	return err
}

func (r *PostgresStatusRepo) ListChannelStatuses(ctx context.Context, messageID string) ([]model.ChannelStatusRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, notification_id, channel, status, updated_at
		FROM channel_statuses
		WHERE message_id = $1
		ORDER BY channel ASC
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChannelStatusRecord
	for rows.Next() {
		var (
			rec     model.ChannelStatusRecord
			channel string
			status  string
		)
		if err := rows.Scan(&rec.MessageID, &rec.NotificationID, &channel, &status, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Channel = model.Channel(channel)
		rec.Status = model.ChannelStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
