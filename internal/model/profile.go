package model

// PreferencesMode selects how per-sender overrides are resolved for a
// recipient. LEGACY reads the block list embedded in the profile; AUTO and
// MANUAL read versioned service-preference records, differing in what an
// absent record means (AUTO: allowed, MANUAL: blocked).
type PreferencesMode string

const (
	PreferencesModeLegacy PreferencesMode = "LEGACY"
	PreferencesModeAuto   PreferencesMode = "AUTO"
	PreferencesModeManual PreferencesMode = "MANUAL"
)

// Profile is the recipient's profile as owned by the profile subsystem.
// Read-only here.
type Profile struct {
	FiscalCode         string
	Email              string
	IsInboxEnabled     bool
	IsEmailEnabled     bool
	IsWebhookEnabled   bool
	PreferencesMode    PreferencesMode
	PreferencesVersion int

	// BlockedSenders is the legacy per-sender block list, keyed by sender
	// service id. Only consulted under PreferencesModeLegacy.
	BlockedSenders map[string][]BlockedInboxOrChannel
}

// ServicePreference is a per-(recipient, sender, settings-version) override
// record, consulted under AUTO and MANUAL preference modes.
type ServicePreference struct {
	FiscalCode       string
	ServiceID        string
	Version          int
	IsInboxEnabled   bool
	IsEmailEnabled   bool
	IsWebhookEnabled bool
}
