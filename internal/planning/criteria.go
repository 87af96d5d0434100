package planning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/google/uuid"
)

// givenWhenThen matches an explicit "Given X, When Y, Then Z" sentence,
// case-insensitively, across the three clauses in order.
var givenWhenThen = regexp.MustCompile(`(?is)given\s+(.+?),?\s+when\s+(.+?),?\s+then\s+(.+?)(?:\.|$)`)

// imperativeSentence is the fallback heuristic: a sentence opening with a
// bare imperative verb reads as an implicit acceptance criterion even
// without explicit Given/When/Then structure.
var imperativeSentence = regexp.MustCompile(`(?i)^(ensure|must|should|reject|accept|return|validate|support)\b`)

// ExtractAcceptanceCriteria is the rule-based first pass of spec §4.4's
// "Acceptance-criteria extraction": Given/When/Then regex, then an
// imperative-sentence heuristic over every sentence of the text, including
// those the regex already matched.
func ExtractAcceptanceCriteria(text string) []spec.AcceptanceCriterion {
	var out []spec.AcceptanceCriterion

	for _, m := range givenWhenThen.FindAllStringSubmatch(text, -1) {
		out = append(out, spec.AcceptanceCriterion{
			ID:       uuid.NewString(),
			Given:    strings.TrimSpace(m[1]),
			When:     strings.TrimSpace(m[2]),
			Then:     strings.TrimSpace(m[3]),
			Priority: spec.PriorityMust,
		})
	}

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if imperativeSentence.MatchString(sentence) {
			out = append(out, spec.AcceptanceCriterion{
				ID:       uuid.NewString(),
				Given:    "the described precondition",
				When:     "the task is executed",
				Then:     sentence,
				Priority: spec.PriorityShould,
			})
		}
	}

	return out
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	})
}

// fallbackCriterion synthesizes a generic criterion when rule-based
// extraction leaves the count under spec.MinAcceptanceCriteria (no LLM pass
// fills the gap first)
// (spec §4.4 "a minimum of three criteria is guaranteed by injecting
// fallback criteria").
func fallbackCriterion(title string, n int) spec.AcceptanceCriterion {
	return spec.AcceptanceCriterion{
		ID:       uuid.NewString(),
		Given:    fmt.Sprintf("the %q task has been started", title),
		When:     "it completes",
		Then:     fmt.Sprintf("the change satisfies constraint #%d of the task description without regressing existing behavior", n),
		Priority: spec.PriorityCould,
	}
}

// EnsureMinimumCriteria pads criteria up to spec.MinAcceptanceCriteria with
// fallback entries, preserving whatever was already extracted.
func EnsureMinimumCriteria(title string, criteria []spec.AcceptanceCriterion) []spec.AcceptanceCriterion {
	out := append([]spec.AcceptanceCriterion(nil), criteria...)
	for i := len(out); i < spec.MinAcceptanceCriteria; i++ {
		out = append(out, fallbackCriterion(title, i+1))
	}
	return out
}
