package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emergent-company/orchestrator/internal/arbiter"
	"github.com/emergent-company/orchestrator/internal/rpc"
	"github.com/emergent-company/orchestrator/internal/spec"
)

type debateOrchestratorParams struct {
	ScopeIncluded []string           `json:"scope_included"`
	ScopeExcluded []string           `json:"scope_excluded,omitempty"`
	MaxFiles      int                `json:"max_files"`
	MaxLOC        int                `json:"max_loc"`
	Outputs       []spec.WorkerOutput `json:"outputs"`
	TestsAdded    bool               `json:"tests_added"`
	Deterministic bool               `json:"deterministic"`
	Waivers       []spec.Waiver      `json:"waivers,omitempty"`
}

// DebateOrchestrator runs the Arbiter (C6) over a set of candidate worker
// outputs and returns the resulting Verdict, letting a caller compare
// competing drafts before committing to one.
type DebateOrchestrator struct {
	arb *arbiter.Arbiter
}

func NewDebateOrchestrator() *DebateOrchestrator {
	return &DebateOrchestrator{arb: arbiter.New()}
}

func (t *DebateOrchestrator) Name() string { return "debate-orchestrator" }

func (t *DebateOrchestrator) Description() string {
	return "Adjudicate a set of competing worker outputs against compliance rules and return the resulting verdict, tie-break, and agreement score."
}

func (t *DebateOrchestrator) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "scope_included": {"type": "array", "items": {"type": "string"}},
    "scope_excluded": {"type": "array", "items": {"type": "string"}},
    "max_files": {"type": "integer"},
    "max_loc": {"type": "integer"},
    "outputs": {"type": "array", "minItems": 1},
    "tests_added": {"type": "boolean"},
    "deterministic": {"type": "boolean"},
    "waivers": {"type": "array"}
  },
  "required": ["scope_included", "max_files", "max_loc", "outputs"]
}`)
}

func (t *DebateOrchestrator) Execute(ctx context.Context, params json.RawMessage) (*rpc.ToolsCallResult, error) {
	var p debateOrchestratorParams
	if err := json.Unmarshal(params, &p); err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(p.Outputs) == 0 {
		return rpc.ErrorResult("at least one worker output is required"), nil
	}

	scope, err := spec.NewScope(p.ScopeIncluded, p.ScopeExcluded)
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid scope: %v", err)), nil
	}
	budget, err := spec.NewChangeBudget(p.MaxFiles, p.MaxLOC)
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid budget: %v", err)), nil
	}
	ws, err := spec.NewWorkingSpec("ad-hoc debate", "debate-orchestrator tool call", "", spec.RiskStandard, scope, budget, []spec.AcceptanceCriterion{
		{ID: "c1", Priority: spec.PriorityMust},
	})
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid working spec: %v", err)), nil
	}

	verdict := t.arb.Adjudicate(ws, nil, p.Outputs, p.TestsAdded, p.Deterministic, p.Waivers)

	var tieBreak *spec.WorkerOutput
	if len(p.Outputs) > 1 && verdict.Status == spec.VerdictApproved {
		winner := arbiter.BreakTie(p.Outputs[0], p.Outputs[1])
		for _, o := range p.Outputs[2:] {
			winner = arbiter.BreakTie(winner, o)
		}
		tieBreak = &winner
	}

	return rpc.JSONResult(map[string]any{
		"verdict":   verdict,
		"tie_break": tieBreak,
	})
}
