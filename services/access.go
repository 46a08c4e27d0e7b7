package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/neuralbroker/tiergate/core"
)

// Feature-gate queries evaluate against the monitor's current record.
// While no record is loaded the checks are permissive, evaluating
// against the static free-tier table rather than denying access.

// HasFeatureAccess reports whether the feature is enabled for the
// user's current tier.
func (m *TierMonitor) HasFeatureAccess(feature string) bool {
	return core.HasFeatureAccess(m.Data(), feature)
}

// HasUsageRemaining reports whether the user has credits left.
func (m *TierMonitor) HasUsageRemaining() bool {
	return core.HasUsageRemaining(m.Data())
}

// IsFeatureLocked reports whether the feature should render locked:
// locked iff no tier access or no usage remaining.
func (m *TierMonitor) IsFeatureLocked(feature string) bool {
	return core.IsFeatureLocked(m.Data(), feature)
}

// UpgradeMessage returns the user-facing reason a feature is locked,
// empty when it is not.
func (m *TierMonitor) UpgradeMessage(feature string) string {
	return core.UpgradeMessage(m.Data(), feature)
}

// Access computes the full access record for a feature.
func (m *TierMonitor) Access(feature string) core.FeatureAccess {
	return core.EvaluateAccess(m.Data(), feature)
}

// ValidateFeature asks the backend to validate feature access
// server-side. Any failure falls back silently to the local
// evaluation; the validation path is an optional strengthening, never
// a blocker.
func (m *TierMonitor) ValidateFeature(ctx context.Context, feature string) bool {
	m.mu.Lock()
	userID := m.userID
	m.mu.Unlock()

	if userID != "" {
		granted, err := m.backend.ValidateFeature(ctx, userID, feature)
		if err == nil {
			return granted
		}
		m.log.Debug("server-side feature validation failed, using local evaluation",
			zap.String("feature", feature),
			zap.Error(err))
	}

	return !m.IsFeatureLocked(feature)
}
