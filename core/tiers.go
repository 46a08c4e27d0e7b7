package core

import "time"

// Feature names understood by the default tier tables. These mirror the
// backend agent surfaces the dashboard gates.
const (
	FeatureMarketAnalysis        = "market_analysis"
	FeaturePortfolioOptimization = "portfolio_optimization"
	FeatureGoalPlanning          = "goal_planning"
	FeatureExplainability        = "explainability"
	FeatureRealtimeQuotes        = "realtime_quotes"
	FeatureAdvancedCharts        = "advanced_charts"
)

// starterCredits is the credit balance a tier is seeded with.
var starterCredits = map[Tier]int{
	TierFree:       10,
	TierBasic:      100,
	TierPremium:    500,
	TierEnterprise: UnlimitedCredits,
}

// defaultFeatureTables is the authoritative per-tier feature matrix.
// Nearly every feature is enabled at every tier; the operative gate in
// practice is credit exhaustion, not tier mismatch.
var defaultFeatureTables = map[Tier]map[string]FeatureLimit{
	TierFree: {
		FeatureMarketAnalysis:        {Enabled: true, DailyLimit: 5, MonthlyLimit: 50},
		FeaturePortfolioOptimization: {Enabled: true, DailyLimit: 3, MonthlyLimit: 20},
		FeatureGoalPlanning:          {Enabled: true, DailyLimit: 3, MonthlyLimit: 20},
		FeatureExplainability:        {Enabled: true, DailyLimit: 5, MonthlyLimit: 50},
		FeatureAdvancedCharts:        {Enabled: true, DailyLimit: 10, MonthlyLimit: 100},
		FeatureRealtimeQuotes:        {Enabled: false, DailyLimit: 0, MonthlyLimit: 0},
	},
	TierBasic: {
		FeatureMarketAnalysis:        {Enabled: true, DailyLimit: 25, MonthlyLimit: 500},
		FeaturePortfolioOptimization: {Enabled: true, DailyLimit: 15, MonthlyLimit: 300},
		FeatureGoalPlanning:          {Enabled: true, DailyLimit: 15, MonthlyLimit: 300},
		FeatureExplainability:        {Enabled: true, DailyLimit: 25, MonthlyLimit: 500},
		FeatureAdvancedCharts:        {Enabled: true, DailyLimit: 50, MonthlyLimit: 1000},
		FeatureRealtimeQuotes:        {Enabled: true, DailyLimit: 50, MonthlyLimit: 1000},
	},
	TierPremium: {
		FeatureMarketAnalysis:        {Enabled: true, DailyLimit: 100, MonthlyLimit: 2000},
		FeaturePortfolioOptimization: {Enabled: true, DailyLimit: 100, MonthlyLimit: 2000},
		FeatureGoalPlanning:          {Enabled: true, DailyLimit: 100, MonthlyLimit: 2000},
		FeatureExplainability:        {Enabled: true, DailyLimit: 100, MonthlyLimit: 2000},
		FeatureAdvancedCharts:        {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
		FeatureRealtimeQuotes:        {Enabled: true, DailyLimit: 200, MonthlyLimit: 5000},
	},
	TierEnterprise: {
		FeatureMarketAnalysis:        {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
		FeaturePortfolioOptimization: {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
		FeatureGoalPlanning:          {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
		FeatureExplainability:        {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
		FeatureAdvancedCharts:        {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
		FeatureRealtimeQuotes:        {Enabled: true, DailyLimit: UnlimitedCredits, MonthlyLimit: UnlimitedCredits},
	},
}

// NormalizeTier resolves a raw tier string to a known tier.
// Unknown or empty values resolve to the free tier.
func NormalizeTier(raw string) Tier {
	switch Tier(raw) {
	case TierBasic:
		return TierBasic
	case TierPremium:
		return TierPremium
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// StarterCredits returns the seed credit balance for a tier.
func StarterCredits(t Tier) int {
	credits, ok := starterCredits[t]
	if !ok {
		return starterCredits[TierFree]
	}
	return credits
}

// DefaultFeatureTable returns a copy of the feature table for a tier.
// Unknown tiers get the free table.
func DefaultFeatureTable(t Tier) map[string]FeatureLimit {
	table, ok := defaultFeatureTables[t]
	if !ok {
		table = defaultFeatureTables[TierFree]
	}
	out := make(map[string]FeatureLimit, len(table))
	for name, limit := range table {
		out[name] = limit
	}
	return out
}

// FallbackTierData is the record used when the initial tier fetch
// fails: the most restrictive but still-functional default.
func FallbackTierData() *TierData {
	return &TierData{
		Tier:             TierFree,
		CreditsRemaining: StarterCredits(TierFree),
		Features:         DefaultFeatureTable(TierFree),
		LastUpdated:      time.Now(),
		FallbackMode:     true,
	}
}

// NormalizeTierData coerces a backend record into a valid one:
// unknown tier resolves to free, credits stay >= -1, a missing feature
// table falls back to the tier's default, and LastUpdated is filled in.
func NormalizeTierData(d *TierData) *TierData {
	if d == nil {
		return FallbackTierData()
	}
	out := d.Clone()
	out.Tier = NormalizeTier(string(d.Tier))
	if out.CreditsRemaining < UnlimitedCredits {
		// Anything below -1 is a mangled value; floor it rather than
		// granting accidental unlimited usage.
		out.CreditsRemaining = 0
	}
	if len(out.Features) == 0 {
		out.Features = DefaultFeatureTable(out.Tier)
	}
	if out.LastUpdated.IsZero() {
		out.LastUpdated = time.Now()
	}
	return out
}
