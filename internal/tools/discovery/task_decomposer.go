package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emergent-company/orchestrator/internal/planning"
	"github.com/emergent-company/orchestrator/internal/rpc"
)

type taskDecomposerParams struct {
	TaskText string `json:"task_text"`
	Title    string `json:"title,omitempty"`
}

// TaskDecomposer runs the rule-based acceptance-criteria extraction and
// risk assessment passes of the Planning Engine (C4) over free text,
// without generating a full Working Spec or touching an LLM provider, so a
// caller can preview how a task would decompose before submitting it.
type TaskDecomposer struct{}

func NewTaskDecomposer() *TaskDecomposer { return &TaskDecomposer{} }

func (t *TaskDecomposer) Name() string { return "task-decomposer" }

func (t *TaskDecomposer) Description() string {
	return "Extract candidate acceptance criteria and assess feasibility risk for a task description, without generating a full working spec."
}

func (t *TaskDecomposer) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "task_text": {"type": "string"},
    "title": {"type": "string"}
  },
  "required": ["task_text"]
}`)
}

func (t *TaskDecomposer) Execute(ctx context.Context, params json.RawMessage) (*rpc.ToolsCallResult, error) {
	var p taskDecomposerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.TaskText == "" {
		return rpc.ErrorResult("task_text is required"), nil
	}

	title := p.Title
	if title == "" {
		title = p.TaskText
	}

	criteria := planning.ExtractAcceptanceCriteria(p.TaskText)
	criteria = planning.EnsureMinimumCriteria(title, criteria)
	risk := planning.AssessRisks(p.TaskText)

	return rpc.JSONResult(map[string]any{
		"acceptance_criteria": criteria,
		"risk_report":          risk,
	})
}
