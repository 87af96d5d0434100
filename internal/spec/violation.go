package spec

// ViolationCode enumerates the kinds of compliance violation the Validator
// can raise (spec §3).
type ViolationCode string

const (
	ViolationOutOfScope             ViolationCode = "out-of-scope"
	ViolationBudgetExceeded         ViolationCode = "budget-exceeded"
	ViolationMissingTests           ViolationCode = "missing-tests"
	ViolationNonDeterministic       ViolationCode = "non-deterministic"
	ViolationDisallowedTool         ViolationCode = "disallowed-tool"
	ViolationRuleViolation          ViolationCode = "rule-violation"
	ViolationSecurityHardcodedSecret ViolationCode = "security-hardcoded-secret"
	ViolationUnsafeConstruct        ViolationCode = "unsafe-construct"
)

// Severity ranks how serious a Violation is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for comparisons ("no violation higher
// than high" etc.) without relying on string comparison.
var severityRank = map[Severity]int{
	SeverityLow: 0, SeverityMedium: 1, SeverityHigh: 2, SeverityCritical: 3,
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Violation is a single policy breach found by the Compliance Validator.
type Violation struct {
	Code              ViolationCode `json:"code"`
	Severity          Severity      `json:"severity"`
	Message           string        `json:"message"`
	Location          string        `json:"location,omitempty"`
	RemediationHint   string        `json:"remediation_hint,omitempty"`
	ConstitutionalRef string        `json:"constitutional_ref,omitempty"`
	Informational     bool          `json:"informational,omitempty"`
}
