// Package compliance implements the Compliance Validator (C3): a stateless
// evaluator of scope, budget, test-coverage, determinism, and security
// rules against a Working Spec, generalized from the teacher's guard/
// severity system (internal/guards) from workflow guardrails to diff
// compliance checks.
package compliance

import (
	"sort"
	"time"

	"github.com/emergent-company/orchestrator/internal/spec"
)

// Input bundles everything a single validation run needs (spec §4.3).
type Input struct {
	Spec          *spec.WorkingSpec
	Task          *spec.Task
	Diff          spec.DiffStats
	Patches       []string
	TestsAdded    bool
	Deterministic bool // pre-computed by the Executor's determinism hook; false forces a violation only when Patches is empty
	Waivers       []spec.Waiver
	Output        *spec.WorkerOutput // optional, enables provenance-present check
}

// Result is the outcome of one Validate call (spec §4.3).
type Result struct {
	Snapshot    Input
	Violations  []spec.Violation
	Waivers     []spec.Waiver
	ValidatedAt time.Time
}

// Checker is one entry in the extensible rule table (spec §4.3 item 6). The
// closed set of built-in checks below and any registered LintAdapter (see
// lint.go) both implement this.
type Checker interface {
	Name() string
	Check(in Input) []spec.Violation
}

// Validate runs the ordered, short-circuit-free check sequence spec §4.3
// mandates: scope, budget, tests-added, determinism, security, then the
// rule table (including any registered lint adapters). Waiver-covered
// violations are demoted to informational rather than removed, preserving
// the audit trail.
func Validate(in Input, extra ...Checker) Result {
	checkers := []Checker{
		scopeChecker{},
		budgetChecker{},
		testsAddedChecker{},
		determinismChecker{},
		securityChecker{},
		acceptanceCriteriaChecker{},
		riskTierChecker{},
		provenanceChecker{},
	}
	checkers = append(checkers, extra...)
	checkers = append(checkers, registeredLintAdapters()...)

	var violations []spec.Violation
	for _, c := range checkers {
		violations = append(violations, c.Check(in)...)
	}

	now := time.Now()
	demoteWaived(violations, in.Waivers, now)

	return Result{
		Snapshot:    in,
		Violations:  violations,
		Waivers:     in.Waivers,
		ValidatedAt: now,
	}
}

// demoteWaived marks each violation informational in place when a valid
// waiver covers its code (spec §4.3 "A violation shadowed by a valid waiver
// ... is demoted to informational").
func demoteWaived(violations []spec.Violation, waivers []spec.Waiver, now time.Time) {
	for i := range violations {
		for _, w := range waivers {
			if w.Covers(violations[i], now) {
				violations[i].Informational = true
				break
			}
		}
	}
}

// Blocking returns the non-informational violations, the ones that should
// actually drive a rejection or waiver-required decision.
func (r Result) Blocking() []spec.Violation {
	var out []spec.Violation
	for _, v := range r.Violations {
		if !v.Informational {
			out = append(out, v)
		}
	}
	return out
}

// sortPaths is used by the scope checker so the violation list order is
// deterministic given the same input (spec §8 "Validating the same (spec,
// diff) twice yields identical violation lists").
func sortPaths(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}
