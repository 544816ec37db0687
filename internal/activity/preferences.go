package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
)

// blockResolver resolves the per-sender block list for one preferences mode.
// One implementation per mode, selected by a switch on the enum.
type blockResolver interface {
	resolve(ctx context.Context, profile *model.Profile, serviceID string) ([]model.BlockedInboxOrChannel, error)
}

func resolverFor(mode model.PreferencesMode, prefs repo.PreferenceRepository) (blockResolver, error) {
	switch mode {
	case model.PreferencesModeLegacy:
		return legacyResolver{}, nil
	case model.PreferencesModeAuto:
		return preferenceResolver{prefs: prefs, absentBlocksAll: false}, nil
	case model.PreferencesModeManual:
		return preferenceResolver{prefs: prefs, absentBlocksAll: true}, nil
	default:
		return nil, fmt.Errorf("unknown preferences mode %q", mode)
	}
}

// legacyResolver reads the block list embedded in the profile itself.
type legacyResolver struct{}

func (legacyResolver) resolve(_ context.Context, profile *model.Profile, serviceID string) ([]model.BlockedInboxOrChannel, error) {
	return profile.BlockedSenders[serviceID], nil
}

// preferenceResolver looks up the versioned per-(recipient, sender) record.
// Under AUTO an absent record means nothing is blocked; under MANUAL it
// means everything is.
type preferenceResolver struct {
	prefs           repo.PreferenceRepository
	absentBlocksAll bool
}

func (r preferenceResolver) resolve(ctx context.Context, profile *model.Profile, serviceID string) ([]model.BlockedInboxOrChannel, error) {
	pref, err := r.prefs.GetServicePreference(ctx, profile.FiscalCode, serviceID, profile.PreferencesVersion)
	if errors.Is(err, repo.ErrPreferenceNotFound) {
		if r.absentBlocksAll {
			return []model.BlockedInboxOrChannel{model.BlockedInbox, model.BlockedEmail, model.BlockedWebhook}, nil
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var blocked []model.BlockedInboxOrChannel
	if !pref.IsInboxEnabled {
		blocked = append(blocked, model.BlockedInbox)
	}
	if !pref.IsEmailEnabled {
		blocked = append(blocked, model.BlockedEmail)
	}
	if !pref.IsWebhookEnabled {
		blocked = append(blocked, model.BlockedWebhook)
	}
	return blocked, nil
}
