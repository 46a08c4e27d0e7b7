package core

import "time"

// Tier identifies a subscription tier.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// UnlimitedCredits marks a credit balance with no usage cap.
const UnlimitedCredits = -1

// Credentials is the persisted login state
//
// Field names mirror the dashboard's storage keys (authToken, userId)
type Credentials struct {
	Token  string `json:"authToken"`
	UserID string `json:"userId"`
}

// Session is the in-memory authentication state derived from the
// credential store. The raw token never appears in JSON.
type Session struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"userId,omitempty"`
	Token         string    `json:"-"` // Never expose in JSON (security!)
	LoggedInAt    time.Time `json:"loggedInAt,omitempty"`
}

// FeatureLimit describes one feature's availability within a tier.
type FeatureLimit struct {
	Enabled      bool `json:"enabled"`
	DailyLimit   int  `json:"daily_limit"`
	MonthlyLimit int  `json:"monthly_limit"`
}

// TierData is the authoritative view of a user's subscription state.
//
// One record exists per active monitoring session. FallbackMode marks
// records produced locally after a failed initial fetch.
type TierData struct {
	Tier             Tier                    `json:"tier"`
	CreditsRemaining int                     `json:"credits_remaining"`
	TierExpiresAt    *time.Time              `json:"tier_expires_at,omitempty"`
	Features         map[string]FeatureLimit `json:"tier_features"`
	LastUpdated      time.Time               `json:"last_updated"`
	FallbackMode     bool                    `json:"fallback_mode"`
}

// Clone returns a deep copy safe to hand to callers.
func (d *TierData) Clone() *TierData {
	if d == nil {
		return nil
	}
	out := *d
	if d.TierExpiresAt != nil {
		t := *d.TierExpiresAt
		out.TierExpiresAt = &t
	}
	if d.Features != nil {
		out.Features = make(map[string]FeatureLimit, len(d.Features))
		for name, limit := range d.Features {
			out.Features[name] = limit
		}
	}
	return &out
}

// Expired reports whether the tier has an expiry in the past.
func (d *TierData) Expired() bool {
	if d == nil || d.TierExpiresAt == nil {
		return false
	}
	return time.Now().After(*d.TierExpiresAt)
}

// FeatureAccess is the derived lock/unlock decision for one feature.
// It is computed fresh on every query and never stored.
type FeatureAccess struct {
	Feature        string `json:"feature"`
	HasAccess      bool   `json:"has_access"`
	HasUsage       bool   `json:"has_usage"`
	Locked         bool   `json:"locked"`
	UpgradeMessage string `json:"upgrade_message,omitempty"`
}

// LoginResult is the outcome of a backend credential exchange.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
