// Package arbiter implements the Arbiter (C6): it adjudicates a set of
// worker outputs against the Compliance Validator and produces a Verdict.
// The aggregate-then-roll-up-by-severity shape is grounded on the teacher's
// internal/tools/workflow/spec_verify.go (three dimensions checked
// independently, rolled into a single PASS/WARN/FAIL status).
package arbiter

import (
	"fmt"
	"sort"

	"github.com/emergent-company/orchestrator/internal/compliance"
	"github.com/emergent-company/orchestrator/internal/spec"
)

// Merger flags conflicts when more than one worker touches the same path
// (spec §4.5 "conflicts on the same touched path escalate to the Arbiter as
// a violation candidate"). A real content merger would diff3 the patches;
// this implementation's job is only to detect the conflict, not resolve it.
type Merger interface {
	Merge(outputs []spec.WorkerOutput) (spec.DiffStats, []string, []spec.Violation)
}

type defaultMerger struct{}

// Merge unions touched paths, sums added/removed lines, and reports one
// ViolationRuleViolation conflict candidate per path touched by more than
// one worker.
func (defaultMerger) Merge(outputs []spec.WorkerOutput) (spec.DiffStats, []string, []spec.Violation) {
	var agg spec.DiffStats
	pathOwners := make(map[string][]string)
	var patches []string

	for _, o := range outputs {
		agg.LinesAdded += o.Diff.LinesAdded
		agg.LinesRemoved += o.Diff.LinesRemoved
		if o.Content != "" {
			patches = append(patches, o.Content)
		}
		for _, p := range o.Diff.TouchedPaths {
			pathOwners[p] = append(pathOwners[p], o.WorkerID)
		}
	}

	var touched []string
	var conflicts []spec.Violation
	for p, owners := range pathOwners {
		touched = append(touched, p)
		if len(owners) > 1 {
			sort.Strings(owners)
			conflicts = append(conflicts, spec.Violation{
				Code:            spec.ViolationRuleViolation,
				Severity:        spec.SeverityHigh,
				Message:         fmt.Sprintf("path %q was touched by %d workers (%v); outputs were not reconciled", p, len(owners), owners),
				Location:        p,
				RemediationHint: "have one worker own the path, or manually reconcile before re-adjudicating",
			})
		}
	}
	sort.Strings(touched)
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Location < conflicts[j].Location })
	agg.TouchedPaths = touched
	agg.FilesChanged = len(touched)

	return agg, patches, conflicts
}

// Arbiter adjudicates worker outputs into a Verdict.
type Arbiter struct {
	merger Merger
}

// New constructs an Arbiter using the default path-conflict merger.
func New() *Arbiter {
	return &Arbiter{merger: defaultMerger{}}
}

// NewWithMerger allows substituting a real content merger.
func NewWithMerger(m Merger) *Arbiter {
	return &Arbiter{merger: m}
}

// Adjudicate implements adjudicate(spec, worker_outputs) → verdict (spec
// §4.6).
func (a *Arbiter) Adjudicate(ws *spec.WorkingSpec, task *spec.Task, outputs []spec.WorkerOutput, testsAdded, deterministic bool, waivers []spec.Waiver) spec.Verdict {
	taskID := ""
	if task != nil {
		taskID = task.ID
	}

	agg, patches, conflicts := a.merger.Merge(outputs)

	result := compliance.Validate(compliance.Input{
		Spec:          ws,
		Task:          task,
		Diff:          agg,
		Patches:       patches,
		TestsAdded:    testsAdded,
		Deterministic: deterministic,
		Waivers:       waivers,
	})

	violations := append(append([]spec.Violation{}, result.Violations...), conflicts...)
	blocking := blockingOf(violations)

	verdict := spec.Verdict{
		TaskID:     taskID,
		Violations: violations,
		Outputs:    sortedByWorkerID(outputs),
	}

	switch {
	case len(blocking) == 0:
		verdict.Status = spec.VerdictApproved
		verdict.Confidence = agreementScore(outputs)
		verdict.Rationale = "no blocking violations; outputs structurally consistent"
	case waiverEligible(blocking):
		verdict.Status = spec.VerdictModified
		verdict.WaiverRequired = true
		verdict.Rationale = "violations are waiver-eligible (no security or determinism criticals)"
	default:
		verdict.Status = spec.VerdictRejected
		verdict.Rationale = "one or more violations are not waiver-eligible"
	}

	return verdict
}

func blockingOf(violations []spec.Violation) []spec.Violation {
	var out []spec.Violation
	for _, v := range violations {
		if !v.Informational {
			out = append(out, v)
		}
	}
	return out
}

// waiverEligible implements spec §4.6 step 4: "severity ≤ high, no security
// or determinism criticals".
func waiverEligible(blocking []spec.Violation) bool {
	for _, v := range blocking {
		if v.Severity == spec.SeverityCritical {
			return false
		}
		if v.Code == spec.ViolationSecurityHardcodedSecret && v.Severity.AtLeast(spec.SeverityHigh) {
			return false
		}
		if v.Code == spec.ViolationNonDeterministic && v.Severity.AtLeast(spec.SeverityCritical) {
			return false
		}
	}
	return true
}

// agreementScore is a simple proxy for "confidence proportional to output
// agreement" (spec §4.6 step 3): the mean self-assessment across outputs
// that report one. By the time this runs, Adjudicate has already found no
// blocking violations and no path conflicts among the outputs, so the
// structural-agreement floor for unassessed outputs is high, not neutral:
// a single clean output, or multiple outputs that didn't collide, default
// to 0.9.
func agreementScore(outputs []spec.WorkerOutput) float64 {
	if len(outputs) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, o := range outputs {
		if o.SelfAssessed > 0 {
			sum += o.SelfAssessed
			n++
		}
	}
	if n == 0 {
		return 0.9
	}
	return sum / float64(n)
}

func sortedByWorkerID(outputs []spec.WorkerOutput) []spec.WorkerOutput {
	out := append([]spec.WorkerOutput(nil), outputs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

// BreakTie implements spec §4.6's tie-breaking rule between two approvable
// outputs: higher self-assessment score wins, then lower lines-changed
// (prefer surgical).
func BreakTie(a, b spec.WorkerOutput) spec.WorkerOutput {
	if a.SelfAssessed != b.SelfAssessed {
		if a.SelfAssessed > b.SelfAssessed {
			return a
		}
		return b
	}
	if a.Diff.LOC() <= b.Diff.LOC() {
		return a
	}
	return b
}
