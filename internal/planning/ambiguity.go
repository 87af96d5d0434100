package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emergent-company/orchestrator/internal/llm"
	"github.com/emergent-company/orchestrator/internal/orcherr"
	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/google/uuid"
)

// vagueTemplates are known low-information task descriptions that trigger
// clarification regardless of length (spec §4.4 "Ambiguity assessment").
var vagueTemplates = []string{
	"make it better",
	"create a system",
	"add error handling",
}

// impossibleResourcePhrases flag obviously unsatisfiable hardware or
// platform constraints.
var impossibleResourcePhrases = []string{
	"10-year-old smartphone",
	"10 year old smartphone",
}

// rareExpertisePhrases flag domain terms demanding rare, hard-to-source
// expertise.
var rareExpertisePhrases = []string{
	"quantum",
}

// minDescriptionLength is the length below which a task description is
// treated as under-specified.
const minDescriptionLength = 20

// ruleBasedAssess runs the first, deterministic ambiguity pass (spec §4.4).
// It never calls out to C1; it is pure string inspection so it always
// completes, even if the generative pass later fails.
func ruleBasedAssess(taskText string) spec.AmbiguityAssessment {
	lower := strings.ToLower(taskText)
	var tags []string
	var questions []spec.ClarificationQuestion
	score := 0.0

	if len(strings.TrimSpace(taskText)) < minDescriptionLength {
		tags = append(tags, "too-short")
		score += 0.4
		questions = append(questions, newQuestion(
			"What specifically should this task accomplish? The description given is too brief to plan from.",
			spec.QuestionFreeForm, true, 1,
		))
	}

	for _, v := range vagueTemplates {
		if strings.Contains(lower, v) {
			tags = append(tags, "vague-template")
			score += 0.5
			questions = append(questions, newQuestion(
				fmt.Sprintf("The phrase %q does not name a concrete outcome. What does success look like?", v),
				spec.QuestionFreeForm, true, 1,
			))
			break
		}
	}

	if hasSubMicrosecondTarget(lower) {
		tags = append(tags, "impossible-performance-target")
		score += 0.6
		questions = append(questions, newQuestion(
			"The requested latency target is below practical measurement resolution for this kind of system. Please confirm the units or relax the target.",
			spec.QuestionFreeForm, true, 1,
		))
	}

	for _, p := range impossibleResourcePhrases {
		if strings.Contains(lower, p) {
			tags = append(tags, "impossible-resource-constraint")
			score += 0.6
			questions = append(questions, newQuestion(
				"The stated hardware constraint looks unachievable for the requested capability. Please confirm the target device.",
				spec.QuestionFreeForm, true, 2,
			))
			break
		}
	}

	for _, p := range rareExpertisePhrases {
		if strings.Contains(lower, p) && strings.Contains(lower, "from scratch") {
			tags = append(tags, "rare-expertise-required")
			score += 0.5
			questions = append(questions, newQuestion(
				"This task names a domain that typically requires specialist expertise to build from scratch. Is an existing library acceptable?",
				spec.QuestionTechnicalChoice, true, 2,
			))
			break
		}
	}

	if score > 1 {
		score = 1
	}

	return spec.AmbiguityAssessment{Score: score, Tags: tags, Questions: questions}
}

func hasSubMicrosecondTarget(lower string) bool {
	if !strings.Contains(lower, "microsecond") && !strings.Contains(lower, "µs") && !strings.Contains(lower, "us)") {
		return false
	}
	for _, needle := range []string{"sub-10", "sub 10", "under 10", "< 10"} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

func newQuestion(text string, qtype spec.QuestionType, required bool, priority int) spec.ClarificationQuestion {
	return spec.ClarificationQuestion{
		ID:       uuid.NewString(),
		Text:     text,
		Type:     qtype,
		Required: required,
		Priority: priority,
	}
}

// generativeAssessment is the JSON shape the generative pass's completion is
// parsed into (spec §4.4 "second pass is a generative JSON completion").
type generativeAssessment struct {
	Score     float64  `json:"score"`
	Tags      []string `json:"tags"`
	Questions []struct {
		Text     string `json:"text"`
		Type     string `json:"type"`
		Required bool   `json:"required"`
		Priority int    `json:"priority"`
	} `json:"questions"`
}

// generativeAssess runs the second ambiguity pass via C1: a JSON completion
// prompt, parsed into an Assessment and merged with the rule-based result.
func generativeAssess(ctx context.Context, client *llm.Client, taskText string) (spec.AmbiguityAssessment, error) {
	prompt := fmt.Sprintf(`Assess the ambiguity of the following task description. Respond with JSON only, shaped as {"score": 0..1, "tags": [string], "questions": [{"text": string, "type": "free-form"|"multiple-choice"|"boolean"|"technical-choice"|"scope-definition", "required": bool, "priority": int}]}.

Task: %s`, taskText)

	raw, err := client.Generate(ctx, prompt)
	if err != nil {
		return spec.AmbiguityAssessment{}, fmt.Errorf("%w: %v", orcherr.ErrLLM, err)
	}

	var parsed generativeAssessment
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		// A malformed generative response degrades to "no additional
		// signal" rather than failing the whole assessment — the
		// rule-based pass already ran and stands on its own.
		return spec.AmbiguityAssessment{}, nil
	}

	out := spec.AmbiguityAssessment{Score: parsed.Score, Tags: parsed.Tags}
	for _, q := range parsed.Questions {
		out.Questions = append(out.Questions, spec.ClarificationQuestion{
			ID:       uuid.NewString(),
			Text:     q.Text,
			Type:     spec.QuestionType(q.Type),
			Required: q.Required,
			Priority: q.Priority,
		})
	}
	return out, nil
}

// extractJSON trims any leading/trailing prose a model may wrap its JSON
// completion in, taking the outermost {...} span.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// AssessAmbiguity runs both passes and merges them: the higher score wins,
// tags and questions are unioned (spec §4.4 "If either pass yields score ≥
// 0.5 ... clarification_required = true").
func AssessAmbiguity(ctx context.Context, client *llm.Client, taskText string) spec.AmbiguityAssessment {
	rule := ruleBasedAssess(taskText)

	gen, err := generativeAssess(ctx, client, taskText)
	if err != nil {
		// LLM unavailable: fall back to the rule-based pass alone. The
		// Planning Engine must still be able to gate on ambiguity without
		// a live provider.
		return rule
	}

	merged := rule
	if gen.Score > merged.Score {
		merged.Score = gen.Score
	}
	merged.Tags = append(merged.Tags, gen.Tags...)
	merged.Questions = append(merged.Questions, gen.Questions...)
	return merged
}
