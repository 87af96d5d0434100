package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emergent-company/orchestrator/internal/rpc"
	"github.com/emergent-company/orchestrator/internal/spec"
)

type budgetVerifierParams struct {
	MaxFiles     int      `json:"max_files"`
	MaxLOC       int      `json:"max_loc"`
	FilesChanged int      `json:"files_changed"`
	LinesAdded   int      `json:"lines_added"`
	LinesRemoved int      `json:"lines_removed"`
	TouchedPaths []string `json:"touched_paths,omitempty"`
}

// BudgetVerifier checks a diff's size against a Change Budget without
// requiring a full apply, so a caller can confirm a planned change fits
// before dispatching workers.
type BudgetVerifier struct{}

func NewBudgetVerifier() *BudgetVerifier { return &BudgetVerifier{} }

func (t *BudgetVerifier) Name() string { return "budget-verifier" }

func (t *BudgetVerifier) Description() string {
	return "Check whether a diff's file count and line count fit within a given change budget."
}

func (t *BudgetVerifier) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "max_files": {"type": "integer"},
    "max_loc": {"type": "integer"},
    "files_changed": {"type": "integer"},
    "lines_added": {"type": "integer"},
    "lines_removed": {"type": "integer"},
    "touched_paths": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["max_files", "max_loc", "files_changed"]
}`)
}

func (t *BudgetVerifier) Execute(ctx context.Context, params json.RawMessage) (*rpc.ToolsCallResult, error) {
	var p budgetVerifierParams
	if err := json.Unmarshal(params, &p); err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	budget, err := spec.NewChangeBudget(p.MaxFiles, p.MaxLOC)
	if err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid budget: %v", err)), nil
	}
	diff := spec.DiffStats{
		FilesChanged: p.FilesChanged,
		LinesAdded:   p.LinesAdded,
		LinesRemoved: p.LinesRemoved,
		TouchedPaths: p.TouchedPaths,
	}

	return rpc.JSONResult(map[string]any{
		"within_budget": budget.Within(diff),
		"loc":           diff.LOC(),
		"files_changed": diff.FilesChanged,
		"budget":        budget,
	})
}
