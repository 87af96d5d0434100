package arbiter

import (
	"testing"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec(t *testing.T) *spec.WorkingSpec {
	t.Helper()
	scope, err := spec.NewScope([]string{"**"}, nil)
	require.NoError(t, err)
	budget, err := spec.NewChangeBudget(50, 1000)
	require.NoError(t, err)
	ws, err := spec.NewWorkingSpec("t", "d", "e", spec.RiskStandard, scope, budget, []spec.AcceptanceCriterion{
		{ID: "a1", Given: "g", When: "w", Then: "t", Priority: spec.PriorityMust},
	})
	require.NoError(t, err)
	return ws
}

func TestAdjudicate_ApprovesCleanOutput(t *testing.T) {
	ws := testSpec(t)
	outputs := []spec.WorkerOutput{
		{WorkerID: "w1", Content: "fine", Diff: spec.DiffStats{TouchedPaths: []string{"a.go"}}, SelfAssessed: 0.9, Provider: "openai", Model: "gpt"},
	}
	v := New().Adjudicate(ws, spec.NewTask(ws.ID), outputs, true, true, nil)
	assert.Equal(t, spec.VerdictApproved, v.Status)
	assert.False(t, v.HasCriticalViolation())
}

func TestAdjudicate_ConflictingPathsEscalate(t *testing.T) {
	ws := testSpec(t)
	outputs := []spec.WorkerOutput{
		{WorkerID: "w1", Content: "a", Diff: spec.DiffStats{TouchedPaths: []string{"a.go"}}, Provider: "p"},
		{WorkerID: "w2", Content: "b", Diff: spec.DiffStats{TouchedPaths: []string{"a.go"}}, Provider: "p"},
	}
	v := New().Adjudicate(ws, spec.NewTask(ws.ID), outputs, true, true, nil)
	assert.NotEqual(t, spec.VerdictApproved, v.Status)
}

func TestAdjudicate_CriticalSecurityRejectsEvenWithWaiverEligibleOthers(t *testing.T) {
	ws := testSpec(t)
	outputs := []spec.WorkerOutput{
		{WorkerID: "w1", Content: `api_key = "abcdefghijklmnop"`, Diff: spec.DiffStats{TouchedPaths: []string{"a.go"}}, Provider: "p"},
	}
	v := New().Adjudicate(ws, spec.NewTask(ws.ID), outputs, true, true, nil)
	assert.Equal(t, spec.VerdictRejected, v.Status)
}

func TestAdjudicate_OutOfScopeIsRejectedNotWaiverEligible(t *testing.T) {
	scope, _ := spec.NewScope([]string{"services/api/**"}, nil)
	budget, _ := spec.NewChangeBudget(50, 1000)
	ws, err := spec.NewWorkingSpec("t", "d", "e", spec.RiskStandard, scope, budget, []spec.AcceptanceCriterion{
		{ID: "a1", Priority: spec.PriorityMust},
	})
	require.NoError(t, err)

	outputs := []spec.WorkerOutput{
		{WorkerID: "w1", Diff: spec.DiffStats{TouchedPaths: []string{"services/billing/a.go"}}, Provider: "p"},
	}
	v := New().Adjudicate(ws, spec.NewTask(ws.ID), outputs, true, true, nil)
	assert.Equal(t, spec.VerdictRejected, v.Status)
	assert.False(t, v.WaiverRequired)
}

func TestAdjudicate_BudgetExceededIsRejectedNotWaiverEligible(t *testing.T) {
	scope, _ := spec.NewScope([]string{"**"}, nil)
	budget, _ := spec.NewChangeBudget(50, 100)
	ws, err := spec.NewWorkingSpec("t", "d", "e", spec.RiskStandard, scope, budget, []spec.AcceptanceCriterion{
		{ID: "a1", Priority: spec.PriorityMust},
	})
	require.NoError(t, err)

	outputs := []spec.WorkerOutput{
		{WorkerID: "w1", Diff: spec.DiffStats{LinesAdded: 80, LinesRemoved: 30, TouchedPaths: []string{"a.go"}}, Provider: "p"},
	}
	v := New().Adjudicate(ws, spec.NewTask(ws.ID), outputs, true, true, nil)
	assert.Equal(t, spec.VerdictRejected, v.Status)
	assert.False(t, v.WaiverRequired)
}

func TestBreakTie_PrefersHigherSelfAssessment(t *testing.T) {
	a := spec.WorkerOutput{WorkerID: "a", SelfAssessed: 0.9}
	b := spec.WorkerOutput{WorkerID: "b", SelfAssessed: 0.5}
	assert.Equal(t, "a", BreakTie(a, b).WorkerID)
}

func TestBreakTie_PrefersSurgicalOnTie(t *testing.T) {
	a := spec.WorkerOutput{WorkerID: "a", SelfAssessed: 0.9, Diff: spec.DiffStats{LinesAdded: 10}}
	b := spec.WorkerOutput{WorkerID: "b", SelfAssessed: 0.9, Diff: spec.DiffStats{LinesAdded: 5}}
	assert.Equal(t, "b", BreakTie(a, b).WorkerID)
}
