package spec

import "strings"

// RiskTier classifies the impact of a unit of work, setting test and review
// requirements downstream in the Compliance Validator.
type RiskTier string

const (
	RiskCritical RiskTier = "critical"
	RiskHigh     RiskTier = "high"
	RiskStandard RiskTier = "standard"
)

func (t RiskTier) Valid() bool {
	switch t {
	case RiskCritical, RiskHigh, RiskStandard:
		return true
	default:
		return false
	}
}

// RequiresTests reports whether the Compliance Validator's tests-added check
// applies to this tier (spec §4.3 item 3).
func (t RiskTier) RequiresTests() bool {
	return t == RiskCritical || t == RiskHigh
}

// ClassifyRiskTier annotates a risk tier by keyword rule over free text, per
// the Planning Engine's spec-generation contract.
func ClassifyRiskTier(text string) RiskTier {
	lower := strings.ToLower(text)
	for _, kw := range []string{"auth", "security", "billing", "payment", "database", "migration"} {
		if strings.Contains(lower, kw) {
			return RiskCritical
		}
	}
	for _, kw := range []string{"api", "endpoint", "schema", "breaking"} {
		if strings.Contains(lower, kw) {
			return RiskHigh
		}
	}
	return RiskStandard
}
