package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inboxlab/message-dispatch/internal/model"
)

type PostgresProfileRepo struct {
	db *sql.DB
}

func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

func (r *PostgresProfileRepo) GetProfile(ctx context.Context, fiscalCode string) (*model.Profile, error) {
	var (
		p           model.Profile
		email       sql.NullString
		mode        string
		blockedJSON []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT fiscal_code, email, is_inbox_enabled, is_email_enabled,
		       is_webhook_enabled, preferences_mode, preferences_version,
		       blocked_senders
		FROM profiles
		WHERE fiscal_code = $1
	`, fiscalCode).Scan(
		&p.FiscalCode,
		&email,
		&p.IsInboxEnabled,
		&p.IsEmailEnabled,
		&p.IsWebhookEnabled,
		&mode,
		&p.PreferencesVersion,
		&blockedJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if email.Valid {
		p.Email = email.String
	}
	p.PreferencesMode = model.PreferencesMode(mode)

	if len(blockedJSON) > 0 {
		if err := json.Unmarshal(blockedJSON, &p.BlockedSenders); err != nil {
			return nil, fmt.Errorf("failed to decode blocked_senders for %s: %w", fiscalCode, err)
		}
	}
	return &p, nil
}

type PostgresPreferenceRepo struct {
	db *sql.DB
}

func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

func (r *PostgresPreferenceRepo) GetServicePreference(ctx context.Context, fiscalCode, serviceID string, version int) (*model.ServicePreference, error) {
	var pref model.ServicePreference

	err := r.db.QueryRowContext(ctx, `
		SELECT fiscal_code, service_id, version,
		       is_inbox_enabled, is_email_enabled, is_webhook_enabled
		FROM service_preferences
		WHERE fiscal_code = $1 AND service_id = $2 AND version = $3
	`, fiscalCode, serviceID, version).Scan(
		&pref.FiscalCode,
		&pref.ServiceID,
		&pref.Version,
		&pref.IsInboxEnabled,
		&pref.IsEmailEnabled,
		&pref.IsWebhookEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}
