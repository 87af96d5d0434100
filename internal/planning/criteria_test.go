package planning

import (
	"testing"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAcceptanceCriteria_GivenWhenThen(t *testing.T) {
	text := "Given a logged-in user, when they submit the form, then the record is saved."
	got := ExtractAcceptanceCriteria(text)
	require.NotEmpty(t, got)
	assert.Equal(t, "a logged-in user", got[0].Given)
	assert.Equal(t, "they submit the form", got[0].When)
	assert.Contains(t, got[0].Then, "the record is saved")
	assert.Equal(t, spec.PriorityMust, got[0].Priority)
}

func TestExtractAcceptanceCriteria_ImperativeFallback(t *testing.T) {
	text := "This task improves the login flow.\nMust reject empty passwords.\nShould log failed attempts."
	got := ExtractAcceptanceCriteria(text)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, spec.PriorityShould, c.Priority)
	}
}

func TestEnsureMinimumCriteria_PadsToFloor(t *testing.T) {
	out := EnsureMinimumCriteria("widget", nil)
	assert.Len(t, out, spec.MinAcceptanceCriteria)

	existing := []spec.AcceptanceCriterion{{ID: "a", Given: "g", When: "w", Then: "t"}}
	out = EnsureMinimumCriteria("widget", existing)
	assert.Len(t, out, spec.MinAcceptanceCriteria)
	assert.Equal(t, existing[0], out[0])
}

func TestEnsureMinimumCriteria_LeavesSurplusAlone(t *testing.T) {
	existing := make([]spec.AcceptanceCriterion, 5)
	for i := range existing {
		existing[i] = spec.AcceptanceCriterion{ID: "x"}
	}
	out := EnsureMinimumCriteria("widget", existing)
	assert.Len(t, out, 5)
}
