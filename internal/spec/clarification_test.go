package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *ClarificationSession {
	assessment := AmbiguityAssessment{
		Score: 0.8,
		Tags:  []string{"vague-template"},
		Questions: []ClarificationQuestion{
			{ID: "q1", Text: "What subject?", Type: QuestionFreeForm, Required: true},
			{ID: "q2", Text: "What does success look like?", Type: QuestionFreeForm, Required: true},
			{ID: "q3", Text: "Nice to know?", Type: QuestionFreeForm, Required: false},
		},
	}
	return NewClarificationSession("make it better", assessment)
}

func TestClarificationSession_SealsWhenRequiredAnswered(t *testing.T) {
	s := newTestSession()
	require.Equal(t, SessionActive, s.Status)

	require.NoError(t, s.ProcessResponse(ClarificationResponse{QuestionID: "q1", Text: "checkout flow"}))
	assert.Equal(t, SessionActive, s.Status, "still missing q2")

	require.NoError(t, s.ProcessResponse(ClarificationResponse{QuestionID: "q2", Text: "reduce p95 to 300ms"}))
	assert.Equal(t, SessionReadyForPlanning, s.Status)
}

func TestClarificationSession_RejectsUnknownQuestion(t *testing.T) {
	s := newTestSession()
	err := s.ProcessResponse(ClarificationResponse{QuestionID: "bogus", Text: "x"})
	require.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestClarificationSession_RejectsResponseAfterSeal(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.ProcessResponse(ClarificationResponse{QuestionID: "q1", Text: "a"}))
	require.NoError(t, s.ProcessResponse(ClarificationResponse{QuestionID: "q2", Text: "b"}))
	require.Equal(t, SessionReadyForPlanning, s.Status)

	err := s.ProcessResponse(ClarificationResponse{QuestionID: "q3", Text: "c"})
	require.ErrorIs(t, err, ErrSessionSealed)
}

func TestClarificationSession_EnrichedTextIsDeterministic(t *testing.T) {
	s1 := newTestSession()
	s2 := newTestSession()
	s2.ID = s1.ID // irrelevant to enrichment but keeps the comparison honest

	require.NoError(t, s1.ProcessResponse(ClarificationResponse{QuestionID: "q1", Text: "checkout flow"}))
	require.NoError(t, s1.ProcessResponse(ClarificationResponse{QuestionID: "q2", Text: "reduce p95 to 300ms"}))

	require.NoError(t, s2.ProcessResponse(ClarificationResponse{QuestionID: "q1", Text: "checkout flow"}))
	require.NoError(t, s2.ProcessResponse(ClarificationResponse{QuestionID: "q2", Text: "reduce p95 to 300ms"}))

	assert.Equal(t, s1.EnrichedText(), s2.EnrichedText())
	assert.Equal(t, ContentHash(s1.EnrichedText()), ContentHash(s2.EnrichedText()))
}

func TestClarificationSession_SealFailsWithoutRequiredAnswers(t *testing.T) {
	s := newTestSession()
	err := s.Seal()
	require.ErrorIs(t, err, ErrMissingRequiredAnswers)
}
