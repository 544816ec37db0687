package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/inboxlab/message-dispatch/internal/blob"
	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
)

// ContentStoreActivity persists the message body, makes the message visible
// and resolves whether the sender is blocked for this recipient. Each
// precondition is checked in order; the first failing one wins.
type ContentStoreActivity struct {
	profiles repo.ProfileRepository
	prefs    repo.PreferenceRepository
	messages repo.MessageRepository
	content  blob.ContentStore
	log      *slog.Logger
}

func NewContentStoreActivity(
	profiles repo.ProfileRepository,
	prefs repo.PreferenceRepository,
	messages repo.MessageRepository,
	content blob.ContentStore,
	log *slog.Logger,
) *ContentStoreActivity {
	return &ContentStoreActivity{
		profiles: profiles,
		prefs:    prefs,
		messages: messages,
		content:  content,
		log:      log,
	}
}

func (a *ContentStoreActivity) Run(ctx context.Context, ev *model.CreatedMessageEvent) (*ContentStoreResult, error) {
	msgID := ev.Message.ID

	profile, err := a.profiles.GetProfile(ctx, ev.Message.FiscalCode)
	if errors.Is(err, repo.ErrProfileNotFound) {
		// Retrying a missing profile would retry forever.
		a.log.Info("content store: profile not found",
			"message_id", msgID, "fiscal_code", ev.Message.FiscalCode)
		return &ContentStoreResult{Kind: KindFailure, Reason: ReasonProfileNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile for message %s: %w", msgID, err)
	}

	if !profile.IsInboxEnabled {
		a.log.Info("content store: master inbox disabled",
			"message_id", msgID, "fiscal_code", ev.Message.FiscalCode)
		return &ContentStoreResult{Kind: KindFailure, Reason: ReasonMasterInboxDisabled}, nil
	}

	blocked, err := a.resolveBlockedChannels(ctx, profile, ev)
	if err != nil {
		return nil, fmt.Errorf("resolve preferences for message %s: %w", msgID, err)
	}
	if slices.Contains(blocked, model.BlockedInbox) {
		a.log.Info("content store: sender blocked",
			"message_id", msgID,
			"fiscal_code", ev.Message.FiscalCode,
			"service_id", ev.Message.SenderServiceID)
		return &ContentStoreResult{Kind: KindFailure, Reason: ReasonSenderBlocked}, nil
	}

	// Both writes must retry: content-written-but-still-pending is recovered
	// by re-running them, each idempotent.
	if err := a.content.StoreContent(ctx, msgID, ev.Content); err != nil {
		return nil, fmt.Errorf("store content for message %s: %w", msgID, err)
	}
	if err := a.messages.SetNotPending(ctx, msgID); err != nil {
		return nil, fmt.Errorf("flip pending flag for message %s: %w", msgID, err)
	}

	return &ContentStoreResult{
		Kind:            KindSuccess,
		BlockedChannels: blocked,
		Profile:         profile,
	}, nil
}

func (a *ContentStoreActivity) resolveBlockedChannels(ctx context.Context, profile *model.Profile, ev *model.CreatedMessageEvent) ([]model.BlockedInboxOrChannel, error) {
	resolver, err := resolverFor(profile.PreferencesMode, a.prefs)
	if err != nil {
		return nil, err
	}
	return resolver.resolve(ctx, profile, ev.Message.SenderServiceID)
}
