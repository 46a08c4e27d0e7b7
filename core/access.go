package core

import "fmt"

// Feature-gate decisions are pure functions of (TierData, feature
// name). A nil TierData means the data has not loaded yet; every check
// is permissive in that window so the dashboard never blocks a user on
// a loading flicker. Do not invert this direction.

// featureLimit resolves the limit record for a feature, falling back
// to the tier's default table. Features absent from both are treated
// as enabled with no per-feature limit, matching the backend's
// everything-enabled tables.
func featureLimit(d *TierData, feature string) FeatureLimit {
	if d != nil {
		if limit, ok := d.Features[feature]; ok {
			return limit
		}
	}
	tier := TierFree
	if d != nil {
		tier = NormalizeTier(string(d.Tier))
	}
	if limit, ok := defaultFeatureTables[tier][feature]; ok {
		return limit
	}
	return FeatureLimit{Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits}
}

// HasFeatureAccess reports whether the feature is enabled for the
// user's tier. With no data loaded it evaluates against the static
// free-tier table.
func HasFeatureAccess(d *TierData, feature string) bool {
	return featureLimit(d, feature).Enabled
}

// HasUsageRemaining reports whether the user has credits left.
// A balance of -1 is unlimited. With no data loaded it returns true.
func HasUsageRemaining(d *TierData) bool {
	if d == nil {
		return true
	}
	if d.CreditsRemaining == UnlimitedCredits {
		return true
	}
	return d.CreditsRemaining > 0
}

// IsFeatureLocked is the definitional lock rule:
// locked iff no tier access or no usage remaining.
func IsFeatureLocked(d *TierData, feature string) bool {
	return !HasFeatureAccess(d, feature) || !HasUsageRemaining(d)
}

// UpgradeMessage returns the user-facing reason a feature is locked.
// Usage exhaustion takes precedence over tier mismatch; an unlocked
// feature yields an empty string.
func UpgradeMessage(d *TierData, feature string) string {
	if !HasUsageRemaining(d) {
		return "You've used all your analysis credits. Upgrade your plan or wait for your credits to reset."
	}
	if !HasFeatureAccess(d, feature) {
		return fmt.Sprintf("%s isn't available on your current plan. Upgrade to unlock it.", feature)
	}
	return ""
}

// EvaluateAccess computes the full access record for a feature.
func EvaluateAccess(d *TierData, feature string) FeatureAccess {
	access := HasFeatureAccess(d, feature)
	usage := HasUsageRemaining(d)
	result := FeatureAccess{
		Feature:   feature,
		HasAccess: access,
		HasUsage:  usage,
		Locked:    !access || !usage,
	}
	if result.Locked {
		result.UpgradeMessage = UpgradeMessage(d, feature)
	}
	return result
}
