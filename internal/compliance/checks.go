package compliance

import (
	"fmt"

	"github.com/emergent-company/orchestrator/internal/spec"
)

// scopeChecker implements spec §4.3 item 1: every touched path must match
// an included glob and no excluded glob.
type scopeChecker struct{}

func (scopeChecker) Name() string { return "scope" }

func (scopeChecker) Check(in Input) []spec.Violation {
	bad := sortPaths(in.Spec.Scope.Violations(in.Diff.TouchedPaths))
	violations := make([]spec.Violation, 0, len(bad))
	for _, p := range bad {
		violations = append(violations, spec.Violation{
			Code:            spec.ViolationOutOfScope,
			Severity:        spec.SeverityCritical,
			Message:         fmt.Sprintf("path %q is outside the spec's declared scope", p),
			Location:        p,
			RemediationHint: "restrict the change to paths under scope.included, or widen the spec's scope",
		})
	}
	return violations
}

// budgetChecker implements spec §4.3 item 2.
type budgetChecker struct{}

func (budgetChecker) Name() string { return "budget" }

func (budgetChecker) Check(in Input) []spec.Violation {
	if in.Spec.ChangeBudget.Within(in.Diff) {
		return nil
	}
	return []spec.Violation{{
		Code:     spec.ViolationBudgetExceeded,
		Severity: spec.SeverityCritical,
		Message: fmt.Sprintf("diff changes %d files / %d loc, exceeding budget of %d files / %d loc",
			in.Diff.FilesChanged, in.Diff.LOC(), in.Spec.ChangeBudget.MaxFiles, in.Spec.ChangeBudget.MaxLOC),
		RemediationHint: "split the change or request a budget increase",
	}}
}

// testsAddedChecker implements spec §4.3 item 3: required for critical/high
// risk tiers.
type testsAddedChecker struct{}

func (testsAddedChecker) Name() string { return "tests-added" }

func (testsAddedChecker) Check(in Input) []spec.Violation {
	if !in.Spec.RiskTier.RequiresTests() || in.TestsAdded {
		return nil
	}
	return []spec.Violation{{
		Code:            spec.ViolationMissingTests,
		Severity:        spec.SeverityMedium,
		Message:         fmt.Sprintf("risk tier %q requires tests but none were added", in.Spec.RiskTier),
		RemediationHint: "add test coverage for the changed behavior",
	}}
}

// securityChecker implements spec §4.3 item 5: hard-coded secrets, shell
// interpolation, eval-like constructs.
type securityChecker struct{}

func (securityChecker) Name() string { return "security" }

func (securityChecker) Check(in Input) []spec.Violation {
	var violations []spec.Violation
	for _, patch := range in.Patches {
		for _, m := range scanSecurity(patch) {
			violations = append(violations, m)
		}
	}
	return violations
}

// acceptanceCriteriaChecker is the supplemented check (SPEC_FULL §10,
// grounded on original_source/.../caws_checker.rs's check_acceptance_criteria):
// a task with zero acceptance criteria is a SoftBlock-equivalent (medium
// severity) signal, not a hard rejection.
type acceptanceCriteriaChecker struct{}

func (acceptanceCriteriaChecker) Name() string { return "acceptance-criteria-present" }

func (acceptanceCriteriaChecker) Check(in Input) []spec.Violation {
	if len(in.Spec.Criteria) > 0 {
		return nil
	}
	return []spec.Violation{{
		Code:            spec.ViolationRuleViolation,
		Severity:        spec.SeverityMedium,
		Message:         "spec has no acceptance criteria",
		RemediationHint: "planning engine should have guaranteed at least 3 acceptance criteria",
	}}
}

// riskTierChecker is the supplemented check (SPEC_FULL §10, grounded on
// check_risk_tier_appropriateness): a diff's file count should not exceed
// its risk tier's implied ceiling ahead of any explicit budget override.
type riskTierChecker struct{}

func (riskTierChecker) Name() string { return "risk-tier-appropriate" }

func (riskTierChecker) Check(in Input) []spec.Violation {
	ceiling := spec.RiskTierBudgetCeiling(in.Spec.RiskTier)
	if in.Spec.ChangeBudget.MaxFiles > ceiling {
		return nil // explicit override widens the ceiling
	}
	if in.Diff.FilesChanged <= ceiling {
		return nil
	}
	return []spec.Violation{{
		Code:     spec.ViolationRuleViolation,
		Severity: spec.SeverityMedium,
		Message: fmt.Sprintf("diff touches %d files, exceeding the %q tier's typical ceiling of %d",
			in.Diff.FilesChanged, in.Spec.RiskTier, ceiling),
		RemediationHint: "confirm the risk tier still reflects the blast radius, or narrow the diff",
	}}
}

// provenanceChecker is the supplemented check (SPEC_FULL §10, grounded on
// check_provenance_requirements): a WorkerOutput should name the
// model/provider that produced it.
type provenanceChecker struct{}

func (provenanceChecker) Name() string { return "provenance-present" }

func (provenanceChecker) Check(in Input) []spec.Violation {
	if in.Output == nil || in.Output.HasProvenance() {
		return nil
	}
	return []spec.Violation{{
		Code:            spec.ViolationRuleViolation,
		Severity:        spec.SeverityLow,
		Message:         "worker output carries no model/provider identifier",
		RemediationHint: "workers should report the model/provider that produced the output",
	}}
}
