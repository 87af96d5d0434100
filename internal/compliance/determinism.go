package compliance

import (
	"fmt"
	"regexp"

	"github.com/emergent-company/orchestrator/internal/spec"
)

// DeterminismPassScore is the floor below which the determinism check
// raises a violation (spec §4.3 item 4: "if < 0.95 report non-deterministic").
const DeterminismPassScore = 0.95

// determinismPattern is one non-deterministic construct class the scanner
// looks for, carrying the severity-weighted deduction it applies to the
// starting score of 1.0. The weight table (0.3/0.2/0.1/0.05) and the
// severity-per-class idea are supplemented from original_source/'s
// caws_checker.rs violation scoring model (SPEC_FULL §10).
type determinismPattern struct {
	name     string
	re       *regexp.Regexp
	severity spec.Severity
	weight   float64
}

var determinismPatterns = []determinismPattern{
	{
		name:     "unseeded-random",
		re:       regexp.MustCompile(`(?i)\b(rand\.\w+\(|math/rand|thread_rng\(\)|Math\.random\(\))`),
		severity: spec.SeverityCritical,
		weight:   0.3,
	},
	{
		name:     "wall-clock-read",
		re:       regexp.MustCompile(`(?i)\b(time\.Now\(\)|Date\.now\(\)|SystemTime::now\(\)|Instant::now\(\))`),
		severity: spec.SeverityHigh,
		weight:   0.2,
	},
	{
		name:     "unbounded-sleep",
		re:       regexp.MustCompile(`(?i)\b(sleep\s*\(\s*-?\d|time\.Sleep\(0\))`),
		severity: spec.SeverityMedium,
		weight:   0.1,
	},
	{
		name:     "hash-iteration-order",
		re:       regexp.MustCompile(`(?i)\bfor\s+\w+\s*:?=?\s*range\s+map\[`),
		severity: spec.SeverityMedium,
		weight:   0.1,
	},
	{
		name:     "unretried-external-io",
		re:       regexp.MustCompile(`(?i)\b(http\.Get\(|http\.Post\(|net\.Dial\()`),
		severity: spec.SeverityLow,
		weight:   0.05,
	},
}

// scoreDeterminism applies every pattern class to patch, returning the
// weighted score (starting at 1.0, floor 0) and the matched pattern
// classes, highest severity first.
func scoreDeterminism(patch string) (float64, []determinismPattern) {
	score := 1.0
	var matched []determinismPattern
	for _, p := range determinismPatterns {
		if p.re.MatchString(patch) {
			matched = append(matched, p)
			score -= p.weight
		}
	}
	if score < 0 {
		score = 0
	}
	return score, matched
}

// determinismChecker implements spec §4.3 item 4. It scans patches directly
// (rather than trusting only the incoming flag) so that Validate's own
// contract ("pattern scan over patches") holds even when called outside the
// Executor's determinism hook; a false Deterministic flag from the
// Executor's own scan forces a violation only when there are no patches to
// score, otherwise the patch score alone decides.
type determinismChecker struct{}

func (determinismChecker) Name() string { return "determinism" }

func (determinismChecker) Check(in Input) []spec.Violation {
	var violations []spec.Violation

	worstSeverity := spec.SeverityLow
	lowestScore := 1.0
	var allMatched []determinismPattern
	for _, patch := range in.Patches {
		score, matched := scoreDeterminism(patch)
		if score < lowestScore {
			lowestScore = score
		}
		allMatched = append(allMatched, matched...)
		for _, m := range matched {
			if m.severity.AtLeast(worstSeverity) {
				worstSeverity = m.severity
			}
		}
	}

	forcedFailure := !in.Deterministic && len(in.Patches) == 0
	if len(in.Patches) > 0 && lowestScore < DeterminismPassScore {
		violations = append(violations, spec.Violation{
			Code:            spec.ViolationNonDeterministic,
			Severity:        worstSeverity,
			Message:         fmt.Sprintf("determinism score %.4f is below the required %.2f (%d pattern matches)", lowestScore, DeterminismPassScore, len(allMatched)),
			RemediationHint: "remove unseeded randomness, wall-clock reads, and unbounded sleeps from the diff",
		})
	} else if forcedFailure {
		violations = append(violations, spec.Violation{
			Code:            spec.ViolationNonDeterministic,
			Severity:        spec.SeverityHigh,
			Message:         "executor's determinism hook reported a non-deterministic result with no patch content to attribute it to",
			RemediationHint: "re-run the task and capture patch content for determinism analysis",
		})
	}

	return violations
}
