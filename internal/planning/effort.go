package planning

import (
	"time"

	"github.com/emergent-company/orchestrator/internal/spec"
)

// baseEffort is the nominal effort estimate per risk tier before the
// historical-average adjustment (spec §4.4 "effort estimate by tier with
// historical-average adjustment").
var baseEffort = map[spec.RiskTier]time.Duration{
	spec.RiskCritical: 8 * time.Hour,
	spec.RiskHigh:      4 * time.Hour,
	spec.RiskStandard:  2 * time.Hour,
}

// minAdjustment and maxAdjustment bound the historical-average multiplier
// (spec §4.4 "∈ [0.5, 2.0]").
const (
	minAdjustment = 0.5
	maxAdjustment = 2.0
)

// EstimateEffort computes the effort estimate for tier, scaled by
// historicalAdjustment (e.g. derived from how long past tasks of this tier
// actually took relative to their base estimate). The multiplier is clamped
// to [0.5, 2.0] regardless of what the caller passes in.
func EstimateEffort(tier spec.RiskTier, historicalAdjustment float64) time.Duration {
	if historicalAdjustment < minAdjustment {
		historicalAdjustment = minAdjustment
	}
	if historicalAdjustment > maxAdjustment {
		historicalAdjustment = maxAdjustment
	}
	base, ok := baseEffort[tier]
	if !ok {
		base = baseEffort[spec.RiskStandard]
	}
	return time.Duration(float64(base) * historicalAdjustment)
}
