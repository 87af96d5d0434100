package spec

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a Clarification Session.
type SessionStatus string

const (
	SessionActive            SessionStatus = "active"
	SessionReadyForPlanning  SessionStatus = "ready-for-planning"
	SessionCompleted         SessionStatus = "completed"
	SessionTerminated        SessionStatus = "terminated"
)

// ClarificationResponse is a caller's answer to one question.
type ClarificationResponse struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

// ClarificationSession is the stateful Q&A interaction that enriches an
// ambiguous task until a Working Spec is producible (spec §3, GLOSSARY).
// It is created by the Planning Engine and mutated only through
// ProcessResponse — no other code path appends a response.
type ClarificationSession struct {
	ID           string                   `json:"id"`
	TaskText     string                   `json:"task_text"`
	Assessment   AmbiguityAssessment      `json:"assessment"`
	Questions    []ClarificationQuestion  `json:"questions"`
	Responses    map[string]ClarificationResponse `json:"responses"`
	Status       SessionStatus            `json:"status"`
}

// NewClarificationSession instantiates a session with the generated
// questions, status active (spec §4.4 "Clarification protocol").
func NewClarificationSession(taskText string, assessment AmbiguityAssessment) *ClarificationSession {
	return &ClarificationSession{
		ID:         uuid.NewString(),
		TaskText:   taskText,
		Assessment: assessment,
		Questions:  assessment.Questions,
		Responses:  make(map[string]ClarificationResponse),
		Status:     SessionActive,
	}
}

func (s *ClarificationSession) questionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Questions))
	for _, q := range s.Questions {
		ids[q.ID] = struct{}{}
	}
	return ids
}

// ProcessResponse validates and appends a single response. It is the only
// mutator of Responses (spec §3 "Lifecycle: ... mutated only by
// process_response").
func (s *ClarificationSession) ProcessResponse(r ClarificationResponse) error {
	if s.Status != SessionActive {
		return ErrSessionSealed
	}
	if _, ok := s.questionIDs()[r.QuestionID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, r.QuestionID)
	}
	s.Responses[r.QuestionID] = r
	if s.allRequiredAnswered() {
		s.Status = SessionReadyForPlanning
	}
	return nil
}

func (s *ClarificationSession) allRequiredAnswered() bool {
	for _, q := range s.Questions {
		if !q.Required {
			continue
		}
		if _, ok := s.Responses[q.ID]; !ok {
			return false
		}
	}
	return true
}

// Seal transitions an active session directly to ready-for-planning,
// failing if a required question remains unanswered.
func (s *ClarificationSession) Seal() error {
	if !s.allRequiredAnswered() {
		return ErrMissingRequiredAnswers
	}
	s.Status = SessionReadyForPlanning
	return nil
}

// Terminate moves the session to the terminated terminal state.
func (s *ClarificationSession) Terminate() {
	s.Status = SessionTerminated
}

// Complete moves a ready-for-planning session to completed, once the
// Planning Engine has consumed it to produce a spec.
func (s *ClarificationSession) Complete() error {
	if s.Status != SessionReadyForPlanning {
		return ErrSessionSealed
	}
	s.Status = SessionCompleted
	return nil
}

// EnrichedText deterministically concatenates "{question.text}: {response.text}"
// lines in question order, producing the expanded task text whose content
// hash becomes the Spec's provenance hash (spec §4.4 "Clarification
// protocol"). This must be deterministic for the round-trip property in
// spec §8 ("Enriching a task description with a session and then parsing it
// back yields the same provenance hash").
func (s *ClarificationSession) EnrichedText() string {
	var sb strings.Builder
	sb.WriteString(s.TaskText)
	for _, q := range s.Questions {
		r, ok := s.Responses[q.ID]
		if !ok {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(q.Text)
		sb.WriteString(": ")
		sb.WriteString(r.Text)
	}
	return sb.String()
}
