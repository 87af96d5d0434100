package planning

import (
	"context"
	"testing"
	"time"

	"github.com/emergent-company/orchestrator/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	response string
	err      error
}

func (p stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.response, p.err
}

func (p stubProvider) Name() string { return "stub" }

func newTestClient(response string) *llm.Client {
	return llm.NewClient(stubProvider{response: response}, time.Minute, discardLogger())
}

func TestRuleBasedAssess_TooShort(t *testing.T) {
	a := ruleBasedAssess("fix it")
	assert.GreaterOrEqual(t, a.Score, 0.4)
	assert.Contains(t, a.Tags, "too-short")
	require.NotEmpty(t, a.Questions)
}

func TestRuleBasedAssess_VagueTemplate(t *testing.T) {
	a := ruleBasedAssess("please create a system that handles everything for the team going forward")
	assert.Contains(t, a.Tags, "vague-template")
}

func TestRuleBasedAssess_ClearTaskHasLowScore(t *testing.T) {
	a := ruleBasedAssess("Add a POST /invoices endpoint that validates the customer id and persists an invoice row.")
	assert.Less(t, a.Score, ClarificationThresholdForTest)
}

func TestAssessAmbiguity_FallsBackOnLLMFailure(t *testing.T) {
	client := llm.NewClient(stubProvider{err: assertErr{}}, time.Minute, discardLogger())
	a := AssessAmbiguity(context.Background(), client, "fix it")
	assert.Contains(t, a.Tags, "too-short")
}

func TestAssessAmbiguity_MergesGenerativeScore(t *testing.T) {
	client := newTestClient(`{"score": 0.9, "tags": ["needs-context"], "questions": [{"text": "Which service?", "type": "free-form", "required": true, "priority": 1}]}`)
	a := AssessAmbiguity(context.Background(), client, "Add a POST /invoices endpoint that validates the customer id and persists an invoice row.")
	assert.Equal(t, 0.9, a.Score)
	assert.Contains(t, a.Tags, "needs-context")
}

// ClarificationThresholdForTest avoids importing the spec package just for
// the threshold constant in this file's simplest assertions.
const ClarificationThresholdForTest = 0.5

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
