// Package discovery implements the five tools the RPC surface exposes for
// tools/call (spec §6): policy-validator, waiver-auditor, budget-verifier,
// debate-orchestrator, task-decomposer. Each is a thin rpc.Tool adapter
// over the Compliance Validator (C3), Arbiter (C6), or Planning Engine
// (C4), following the teacher's query-tool shape (struct holding a
// dependency, Name/Description/InputSchema/Execute).
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emergent-company/orchestrator/internal/compliance"
	"github.com/emergent-company/orchestrator/internal/rpc"
	"github.com/emergent-company/orchestrator/internal/spec"
)

type policyValidatorParams struct {
	ScopeIncluded []string           `json:"scope_included"`
	ScopeExcluded []string           `json:"scope_excluded,omitempty"`
	MaxFiles      int                `json:"max_files"`
	MaxLOC        int                `json:"max_loc"`
	TouchedPaths  []string           `json:"touched_paths"`
	LinesAdded    int                `json:"lines_added"`
	LinesRemoved  int                `json:"lines_removed"`
	Patches       []string           `json:"patches,omitempty"`
	TestsAdded    bool               `json:"tests_added"`
	Deterministic bool               `json:"deterministic"`
	Waivers       []spec.Waiver      `json:"waivers,omitempty"`
	Criteria      []spec.AcceptanceCriterion `json:"criteria,omitempty"`
}

// PolicyValidator runs the Compliance Validator (C3) against an arbitrary
// proposed diff without requiring a full task lifecycle, so a caller can
// check a candidate change before submitting it.
type PolicyValidator struct{}

func NewPolicyValidator() *PolicyValidator { return &PolicyValidator{} }

func (t *PolicyValidator) Name() string { return "policy-validator" }

func (t *PolicyValidator) Description() string {
	return "Validate a proposed diff's scope, budget, test coverage, determinism, and security against compliance rules, returning any violations."
}

func (t *PolicyValidator) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "scope_included": {"type": "array", "items": {"type": "string"}},
    "scope_excluded": {"type": "array", "items": {"type": "string"}},
    "max_files": {"type": "integer"},
    "max_loc": {"type": "integer"},
    "touched_paths": {"type": "array", "items": {"type": "string"}},
    "lines_added": {"type": "integer"},
    "lines_removed": {"type": "integer"},
    "patches": {"type": "array", "items": {"type": "string"}},
    "tests_added": {"type": "boolean"},
    "deterministic": {"type": "boolean"},
    "waivers": {"type": "array"}
  },
  "required": ["scope_included", "max_files", "max_loc", "touched_paths"]
}`)
}

func (t *PolicyValidator) Execute(ctx context.Context, params json.RawMessage) (*rpc.ToolsCallResult, error) {
	var p policyValidatorParams
	if err := json.Unmarshal(params, &p); err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	scope, err := spec.NewScope(p.ScopeIncluded, p.ScopeExcluded)
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid scope: %v", err)), nil
	}
	budget, err := spec.NewChangeBudget(p.MaxFiles, p.MaxLOC)
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid budget: %v", err)), nil
	}
	criteria := p.Criteria
	if len(criteria) == 0 {
		criteria = []spec.AcceptanceCriterion{{ID: "c1", Priority: spec.PriorityMust}}
	}
	ws, err := spec.NewWorkingSpec("ad-hoc validation", "policy-validator tool call", "", spec.RiskStandard, scope, budget, criteria)
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid working spec: %v", err)), nil
	}

	result := compliance.Validate(compliance.Input{
		Spec: ws,
		Diff: spec.DiffStats{
			FilesChanged: len(p.TouchedPaths),
			LinesAdded:   p.LinesAdded,
			LinesRemoved: p.LinesRemoved,
			TouchedPaths: p.TouchedPaths,
		},
		Patches:       p.Patches,
		TestsAdded:    p.TestsAdded,
		Deterministic: p.Deterministic,
		Waivers:       p.Waivers,
	})

	return rpc.JSONResult(map[string]any{
		"violations":   result.Violations,
		"blocking":     result.Blocking(),
		"validated_at": result.ValidatedAt.Format(time.RFC3339),
	})
}
