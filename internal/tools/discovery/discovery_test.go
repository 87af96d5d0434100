package discovery

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyValidator_CleanChangePasses(t *testing.T) {
	tool := NewPolicyValidator()
	params, _ := json.Marshal(policyValidatorParams{
		ScopeIncluded: []string{"internal/client/**"},
		MaxFiles:      10,
		MaxLOC:        500,
		TouchedPaths:  []string{"internal/client/retry.go"},
		LinesAdded:    20,
		TestsAdded:    true,
		Deterministic: true,
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	assert.Empty(t, decoded["blocking"])
}

func TestPolicyValidator_OutOfScopePathIsBlocking(t *testing.T) {
	tool := NewPolicyValidator()
	params, _ := json.Marshal(policyValidatorParams{
		ScopeIncluded: []string{"internal/client/**"},
		MaxFiles:      10,
		MaxLOC:        500,
		TouchedPaths:  []string{"internal/other/file.go"},
		LinesAdded:    20,
		TestsAdded:    true,
		Deterministic: true,
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	blocking, ok := decoded["blocking"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, blocking)
}

func TestPolicyValidator_InvalidScopeReturnsErrorResult(t *testing.T) {
	tool := NewPolicyValidator()
	params, _ := json.Marshal(policyValidatorParams{
		ScopeIncluded: []string{"internal/client/**"},
		ScopeExcluded: []string{"internal/client/**"},
		MaxFiles:      10,
		MaxLOC:        500,
		TouchedPaths:  []string{"internal/client/retry.go"},
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestWaiverAuditor_ShortJustificationIsInvalid(t *testing.T) {
	tool := NewWaiverAuditor()
	params, _ := json.Marshal(waiverAuditorParams{
		Waivers: []spec.Waiver{
			{ID: "w1", ViolationCode: spec.ViolationMissingTests, Justification: "too short"},
		},
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded struct {
		Waivers []waiverAuditEntry `json:"waivers"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	require.Len(t, decoded.Waivers, 1)
	assert.False(t, decoded.Waivers[0].Valid)
}

func TestWaiverAuditor_ValidWaiverCoversMatchingViolation(t *testing.T) {
	tool := NewWaiverAuditor()
	params, _ := json.Marshal(waiverAuditorParams{
		Waivers: []spec.Waiver{
			{ID: "w1", ViolationCode: spec.ViolationMissingTests, Justification: "This is a long enough justification for the waiver"},
		},
		Violations: []spec.Violation{
			{Code: spec.ViolationMissingTests, Severity: spec.SeverityMedium, Message: "no tests added"},
		},
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)

	var decoded struct {
		Waivers []waiverAuditEntry `json:"waivers"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	require.Len(t, decoded.Waivers, 1)
	assert.True(t, decoded.Waivers[0].Valid)
	assert.True(t, decoded.Waivers[0].CoversAny)
}

func TestBudgetVerifier_WithinBudget(t *testing.T) {
	tool := NewBudgetVerifier()
	params, _ := json.Marshal(budgetVerifierParams{
		MaxFiles:     10,
		MaxLOC:       500,
		FilesChanged: 3,
		LinesAdded:   100,
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	assert.Equal(t, true, decoded["within_budget"])
}

func TestBudgetVerifier_ExceedsBudget(t *testing.T) {
	tool := NewBudgetVerifier()
	params, _ := json.Marshal(budgetVerifierParams{
		MaxFiles:     1,
		MaxLOC:       10,
		FilesChanged: 5,
		LinesAdded:   100,
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	assert.Equal(t, false, decoded["within_budget"])
}

func TestDebateOrchestrator_NoOutputsReturnsError(t *testing.T) {
	tool := NewDebateOrchestrator()
	params, _ := json.Marshal(debateOrchestratorParams{
		ScopeIncluded: []string{"**"},
		MaxFiles:      10,
		MaxLOC:        500,
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestDebateOrchestrator_ApprovesCleanOutput(t *testing.T) {
	tool := NewDebateOrchestrator()
	params, _ := json.Marshal(debateOrchestratorParams{
		ScopeIncluded: []string{"**"},
		MaxFiles:      10,
		MaxLOC:        500,
		Outputs: []spec.WorkerOutput{
			{WorkerID: "w1", Content: "clean change", Provider: "p1"},
		},
		TestsAdded:    true,
		Deterministic: true,
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded struct {
		Verdict spec.Verdict `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	assert.Equal(t, spec.VerdictApproved, decoded.Verdict.Status)
}

func TestTaskDecomposer_ExtractsCriteriaAndRisk(t *testing.T) {
	tool := NewTaskDecomposer()
	params, _ := json.Marshal(taskDecomposerParams{
		TaskText: "Given a valid request, when the client retries, then it must back off exponentially.",
	})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded struct {
		AcceptanceCriteria []spec.AcceptanceCriterion `json:"acceptance_criteria"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &decoded))
	assert.NotEmpty(t, decoded.AcceptanceCriteria)
}

func TestTaskDecomposer_EmptyTextIsInvalid(t *testing.T) {
	tool := NewTaskDecomposer()
	params, _ := json.Marshal(taskDecomposerParams{})

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
