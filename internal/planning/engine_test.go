package planning

import (
	"context"
	"testing"
	"time"

	"github.com/emergent-company/orchestrator/internal/llm"
	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCandidateJSON = `{
  "title": "add invoices endpoint",
  "description": "Add a POST /invoices endpoint.",
  "scope_included": ["services/billing/**"],
  "scope_excluded": [],
  "max_files": 10,
  "max_loc": 300,
  "constraints": ["must not change the public API"],
  "test_plan": "unit tests for the handler and persistence layer",
  "rollback_plan": "revert the commit"
}`

func TestGenerateSpec_ClearTaskSkipsClarification(t *testing.T) {
	client := newTestClient(validCandidateJSON)
	engine := NewEngine(client, discardLogger(), 3)

	result, err := engine.GenerateSpec(context.Background(), "Add a POST /invoices endpoint that validates the customer id and persists an invoice row.", nil)
	require.NoError(t, err)
	require.Nil(t, result.Clarification)
	require.NotNil(t, result.Spec)
	assert.Equal(t, "add invoices endpoint", result.Spec.Title)
	assert.GreaterOrEqual(t, len(result.Spec.Criteria), spec.MinAcceptanceCriteria)
}

func TestGenerateSpec_AmbiguousTaskNeedsClarification(t *testing.T) {
	client := newTestClient(validCandidateJSON)
	engine := NewEngine(client, discardLogger(), 3)

	result, err := engine.GenerateSpec(context.Background(), "fix it", nil)
	require.NoError(t, err)
	require.Nil(t, result.Spec)
	require.NotNil(t, result.Clarification)
	assert.Equal(t, spec.SessionActive, result.Clarification.Session.Status)
}

func TestGenerateSpecWithClarification_RequiresReadySession(t *testing.T) {
	client := newTestClient(validCandidateJSON)
	engine := NewEngine(client, discardLogger(), 3)

	session := spec.NewClarificationSession("fix it", spec.AmbiguityAssessment{Score: 0.8})
	_, err := engine.GenerateSpecWithClarification(context.Background(), session, nil)
	assert.ErrorIs(t, err, ErrSessionNotReady)
}

func TestGenerateSpecWithClarification_Succeeds(t *testing.T) {
	client := newTestClient(validCandidateJSON)
	engine := NewEngine(client, discardLogger(), 3)

	assessment := spec.AmbiguityAssessment{
		Score: 0.8,
		Questions: []spec.ClarificationQuestion{
			{ID: "q1", Text: "Which service owns invoices?", Required: true},
		},
	}
	session := spec.NewClarificationSession("add an endpoint", assessment)
	require.NoError(t, session.ProcessResponse(spec.ClarificationResponse{QuestionID: "q1", Text: "billing"}))
	require.Equal(t, spec.SessionReadyForPlanning, session.Status)

	ws, err := engine.GenerateSpecWithClarification(context.Background(), session, nil)
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, spec.SessionCompleted, session.Status)
	assert.NotEmpty(t, ws.ContentHash)
}

func TestGenerateSpec_MalformedCandidateRetriesThenFails(t *testing.T) {
	client := newTestClient("not json at all")
	engine := NewEngine(client, discardLogger(), 2)

	_, err := engine.generateValidatedSpec(context.Background(), "widget", "Add a POST /invoices endpoint that validates input.", nil)
	assert.Error(t, err)
}

func TestAssessRisksMethod_DelegatesToPackageFunc(t *testing.T) {
	engine := NewEngine(llm.NewClient(stubProvider{}, time.Minute, discardLogger()), discardLogger(), 1)
	r := engine.AssessRisks("Add a health check endpoint.")
	assert.Equal(t, TierDirect, r.Recommendation)
}
