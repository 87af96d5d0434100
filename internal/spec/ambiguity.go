package spec

// ClarificationThreshold is the ambiguity score at or above which
// clarification is required (spec §3).
const ClarificationThreshold = 0.5

// QuestionType enumerates the shapes a clarification question can take.
type QuestionType string

const (
	QuestionFreeForm        QuestionType = "free-form"
	QuestionMultipleChoice  QuestionType = "multiple-choice"
	QuestionBoolean         QuestionType = "boolean"
	QuestionTechnicalChoice QuestionType = "technical-choice"
	QuestionScopeDefinition QuestionType = "scope-definition"
)

// ClarificationQuestion is one question posed to the caller to resolve an
// ambiguity.
type ClarificationQuestion struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
	Priority int          `json:"priority"`
}

// AmbiguityAssessment is the result of scoring a task description for
// ambiguity (spec §3, §4.4 "Ambiguity assessment").
type AmbiguityAssessment struct {
	Score     float64                  `json:"score"`
	Tags      []string                 `json:"tags"`
	Questions []ClarificationQuestion  `json:"questions"`
}

// ClarificationRequired reports whether score/questions demand the
// clarification protocol: score at or above threshold, or any question is
// both required and (by construction, at assessment time) unanswered.
func (a AmbiguityAssessment) ClarificationRequired() bool {
	if a.Score >= ClarificationThreshold {
		return true
	}
	for _, q := range a.Questions {
		if q.Required {
			return true
		}
	}
	return false
}
