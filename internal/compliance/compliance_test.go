package compliance

import (
	"testing"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSpec(t *testing.T, tier spec.RiskTier, included, excluded []string, maxFiles, maxLOC int) *spec.WorkingSpec {
	t.Helper()
	scope, err := spec.NewScope(included, excluded)
	require.NoError(t, err)
	budget, err := spec.NewChangeBudget(maxFiles, maxLOC)
	require.NoError(t, err)
	s, err := spec.NewWorkingSpec("t", "d", "enriched", tier, scope, budget, []spec.AcceptanceCriterion{
		{ID: "a1", Given: "g", When: "w", Then: "t", Priority: spec.PriorityMust},
	})
	require.NoError(t, err)
	return s
}

func TestValidate_ScopeViolation(t *testing.T) {
	s := mustSpec(t, spec.RiskStandard, []string{"services/api/**"}, nil, 50, 1000)
	result := Validate(Input{
		Spec:          s,
		Diff:          spec.DiffStats{FilesChanged: 1, TouchedPaths: []string{"services/billing/pricing.go"}},
		TestsAdded:    true,
		Deterministic: true,
	})

	blocking := result.Blocking()
	require.Len(t, blocking, 1)
	assert.Equal(t, spec.ViolationOutOfScope, blocking[0].Code)
	assert.Equal(t, "services/billing/pricing.go", blocking[0].Location)
}

func TestValidate_BudgetExceeded(t *testing.T) {
	s := mustSpec(t, spec.RiskStandard, []string{"**"}, nil, 50, 100)
	result := Validate(Input{
		Spec:          s,
		Diff:          spec.DiffStats{FilesChanged: 1, LinesAdded: 80, LinesRemoved: 30, TouchedPaths: []string{"a.go"}},
		TestsAdded:    true,
		Deterministic: true,
	})

	found := false
	for _, v := range result.Blocking() {
		if v.Code == spec.ViolationBudgetExceeded {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_MissingTestsOnHighRiskTier(t *testing.T) {
	s := mustSpec(t, spec.RiskHigh, []string{"**"}, nil, 50, 1000)
	result := Validate(Input{
		Spec:          s,
		Diff:          spec.DiffStats{FilesChanged: 1, TouchedPaths: []string{"a.go"}},
		TestsAdded:    false,
		Deterministic: true,
	})

	found := false
	for _, v := range result.Blocking() {
		if v.Code == spec.ViolationMissingTests {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_NonDeterministicPattern(t *testing.T) {
	s := mustSpec(t, spec.RiskStandard, []string{"**"}, nil, 50, 1000)
	result := Validate(Input{
		Spec:          s,
		Diff:          spec.DiffStats{FilesChanged: 1, TouchedPaths: []string{"a.go"}},
		Patches:       []string{"x := rand.Intn(10)"},
		TestsAdded:    true,
		Deterministic: true,
	})

	found := false
	for _, v := range result.Blocking() {
		if v.Code == spec.ViolationNonDeterministic {
			found = true
			assert.Equal(t, spec.SeverityCritical, v.Severity)
		}
	}
	assert.True(t, found)
}

func TestValidate_WaiverDemotesMatchingViolation(t *testing.T) {
	s := mustSpec(t, spec.RiskStandard, []string{"services/api/**"}, nil, 50, 1000)
	waiver := spec.Waiver{
		ViolationCode: spec.ViolationOutOfScope,
		Justification: "approved by lead after reviewing the scope exception",
	}
	result := Validate(Input{
		Spec:       s,
		Diff:       spec.DiffStats{FilesChanged: 1, TouchedPaths: []string{"services/billing/pricing.go"}},
		TestsAdded: true,
		Deterministic: true,
		Waivers:    []spec.Waiver{waiver},
	})

	assert.Empty(t, result.Blocking())
	require.Len(t, result.Violations, 1)
	assert.True(t, result.Violations[0].Informational)
}

func TestValidate_DeterministicSamePairTwiceIsIdentical(t *testing.T) {
	s := mustSpec(t, spec.RiskStandard, []string{"**"}, nil, 50, 1000)
	in := Input{
		Spec:          s,
		Diff:          spec.DiffStats{FilesChanged: 1, TouchedPaths: []string{"a.go"}},
		TestsAdded:    true,
		Deterministic: true,
	}

	r1 := Validate(in)
	r2 := Validate(in)
	assert.Equal(t, r1.Violations, r2.Violations)
}

func TestValidate_AcceptanceCriteriaAndProvenanceSupplements(t *testing.T) {
	scope, _ := spec.NewScope([]string{"**"}, nil)
	budget, _ := spec.NewChangeBudget(50, 1000)
	s, err := spec.NewWorkingSpec("t", "d", "e", spec.RiskStandard, scope, budget, nil)
	require.NoError(t, err)

	result := Validate(Input{
		Spec:          s,
		Diff:          spec.DiffStats{FilesChanged: 1, TouchedPaths: []string{"a.go"}},
		TestsAdded:    true,
		Deterministic: true,
		Output:        &spec.WorkerOutput{WorkerID: "w1"},
	})

	var codes []spec.ViolationCode
	for _, v := range result.Blocking() {
		codes = append(codes, v.Code)
	}
	assert.Contains(t, codes, spec.ViolationRuleViolation)
}
