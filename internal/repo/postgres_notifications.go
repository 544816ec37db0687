package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inboxlab/message-dispatch/internal/model"
)

type PostgresNotificationRepo struct {
	db *sql.DB
}

func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

func (r *PostgresNotificationRepo) CreateNotification(ctx context.Context, n *model.NotificationRecord) error {
	var (
		emailJSON   []byte
		webhookJSON []byte
		err         error
	)
	if n.Email != nil {
		if emailJSON, err = json.Marshal(n.Email); err != nil {
			return err
		}
	}
	if n.Webhook != nil {
		if webhookJSON, err = json.Marshal(n.Webhook); err != nil {
			return err
		}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, message_id, fiscal_code, email_channel, webhook_channel, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id, message_id) DO NOTHING
	`, n.ID, n.MessageID, n.FiscalCode, emailJSON, webhookJSON, n.CreatedAt)
	return err
}

func (r *PostgresNotificationRepo) GetNotification(ctx context.Context, messageID, notificationID string) (*model.NotificationRecord, error) {
	var (
		n           model.NotificationRecord
		emailJSON   []byte
		webhookJSON []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, message_id, fiscal_code, email_channel, webhook_channel, created_at
		FROM notifications
		WHERE message_id = $1 AND id = $2
	`, messageID, notificationID).Scan(
		&n.ID,
		&n.MessageID,
		&n.FiscalCode,
		&emailJSON,
		&webhookJSON,
		&n.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(emailJSON) > 0 {
		n.Email = &model.EmailNotification{}
		if err := json.Unmarshal(emailJSON, n.Email); err != nil {
			return nil, fmt.Errorf("failed to decode email channel for notification %s: %w", notificationID, err)
		}
	}
	if len(webhookJSON) > 0 {
		n.Webhook = &model.WebhookNotification{}
		if err := json.Unmarshal(webhookJSON, n.Webhook); err != nil {
			return nil, fmt.Errorf("failed to decode webhook channel for notification %s: %w", notificationID, err)
		}
	}
	return &n, nil
}

type PostgresSenderReferenceRepo struct {
	db *sql.DB
}

func NewPostgresSenderReferenceRepo(db *sql.DB) *PostgresSenderReferenceRepo {
	return &PostgresSenderReferenceRepo{db: db}
}

func (r *PostgresSenderReferenceRepo) SaveSenderReference(ctx context.Context, fiscalCode, serviceID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sender_references (fiscal_code, service_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (fiscal_code, service_id) DO NOTHING
	`, fiscalCode, serviceID)
	return err
}
