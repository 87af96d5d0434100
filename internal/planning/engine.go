// Package planning implements the Planning Engine (C4): it turns a
// natural-language request into a validated Working Spec, resolving
// ambiguity through an interactive clarification protocol and gating on
// feasibility. Grounded on the teacher's workflow tool shape
// (internal/tools/workflow/spec_new.go, spec_artifact.go), generalized from
// "create a Change+Proposal against a graph" to "generate and validate a
// WorkingSpec against the Compliance Validator".
package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emergent-company/orchestrator/internal/compliance"
	"github.com/emergent-company/orchestrator/internal/llm"
	"github.com/emergent-company/orchestrator/internal/orcherr"
	"github.com/emergent-company/orchestrator/internal/spec"
)

// DefaultMaxIterations bounds the spec-generation validation loop (spec
// §4.4 "iterates up to N times (config)").
const DefaultMaxIterations = 3

// ClarificationNeeded carries the assessment and the session the caller
// must now drive to ready-for-planning.
type ClarificationNeeded struct {
	Assessment spec.AmbiguityAssessment
	Session    *spec.ClarificationSession
}

// SpecResult is generate_spec's tagged result: exactly one of Spec or
// Clarification is set (spec §4.4 "SpecResult = Success(Spec) |
// ClarificationNeeded(Assessment, Session)").
type SpecResult struct {
	Spec          *spec.WorkingSpec
	Clarification *ClarificationNeeded
}

// Engine is the Planning Engine. It owns no state across calls beyond its
// LLM client and configuration; Working Specs and Sessions are returned to
// the caller to persist.
type Engine struct {
	llm           *llm.Client
	logger        *slog.Logger
	maxIterations int
	defaultBudget spec.ChangeBudget
}

// NewEngine constructs an Engine. maxIterations <= 0 falls back to
// DefaultMaxIterations.
func NewEngine(client *llm.Client, logger *slog.Logger, maxIterations int) *Engine {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Engine{
		llm:           client,
		logger:        logger,
		maxIterations: maxIterations,
		defaultBudget: spec.DefaultBudget(),
	}
}

// GenerateSpec implements generate_spec(task_text, context) → SpecResult
// (spec §4.4 public contract).
func (e *Engine) GenerateSpec(ctx context.Context, taskText string, taskContext map[string]string) (SpecResult, error) {
	assessment := AssessAmbiguity(ctx, e.llm, taskText)
	if assessment.ClarificationRequired() {
		session := spec.NewClarificationSession(taskText, assessment)
		return SpecResult{Clarification: &ClarificationNeeded{Assessment: assessment, Session: session}}, nil
	}

	ws, err := e.generateValidatedSpec(ctx, taskText, taskText, taskContext)
	if err != nil {
		return SpecResult{}, err
	}
	return SpecResult{Spec: ws}, nil
}

// GenerateSpecWithClarification implements
// generate_spec_with_clarification(session, context) → Spec (spec §4.4).
// The session must already be ready-for-planning; this never re-runs
// ambiguity assessment.
func (e *Engine) GenerateSpecWithClarification(ctx context.Context, session *spec.ClarificationSession, taskContext map[string]string) (*spec.WorkingSpec, error) {
	if session.Status != spec.SessionReadyForPlanning {
		return nil, ErrSessionNotReady
	}

	enriched := session.EnrichedText()
	ws, err := e.generateValidatedSpec(ctx, session.TaskText, enriched, taskContext)
	if err != nil {
		return nil, err
	}
	if cerr := session.Complete(); cerr != nil {
		e.logger.Warn("planning: session completion failed after spec generation", "session_id", session.ID, "error", cerr)
	}
	return ws, nil
}

// AssessRisks implements assess_risks(task_text) → RiskReport (spec §4.4).
// It is pure and synchronous, doing no LLM call.
func (e *Engine) AssessRisks(taskText string) RiskReport {
	return AssessRisks(taskText)
}

// candidateSpec is the JSON shape the generative model is asked to emit for
// a candidate Working Spec (spec §4.4 "call C1 to emit a candidate spec
// JSON").
type candidateSpec struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ScopeInclude []string `json:"scope_included"`
	ScopeExclude []string `json:"scope_excluded"`
	MaxFiles     int      `json:"max_files"`
	MaxLOC       int      `json:"max_loc"`
	Constraints  []string `json:"constraints"`
	TestPlan     string   `json:"test_plan"`
	RollbackPlan string   `json:"rollback_plan"`
}

// generateValidatedSpec runs the candidate-generate / validate / repair
// loop (spec §4.4 "Spec generation"). title is the short task name used for
// fallback criteria synthesis; enrichedText is the fully clarified task
// description whose content hash becomes the spec's provenance hash.
func (e *Engine) generateValidatedSpec(ctx context.Context, title, enrichedText string, taskContext map[string]string) (*spec.WorkingSpec, error) {
	var lastViolations []spec.Violation

	for attempt := 0; attempt < e.maxIterations; attempt++ {
		prompt := candidatePrompt(enrichedText, taskContext, lastViolations)
		raw, err := e.llm.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", orcherr.ErrLLM, err)
		}

		cand, err := parseCandidateSpec(raw)
		if err != nil {
			lastViolations = []spec.Violation{{
				Code:     spec.ViolationRuleViolation,
				Severity: spec.SeverityHigh,
				Message:  "candidate spec completion was not valid JSON: " + err.Error(),
			}}
			continue
		}

		ws, err := e.materializeSpec(title, enrichedText, cand)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", orcherr.ErrValidation, err)
		}

		result := compliance.Validate(compliance.Input{
			Spec:          ws,
			Diff:          spec.DiffStats{},
			TestsAdded:    true,
			Deterministic: true,
		})
		blocking := result.Blocking()
		if len(blocking) == 0 {
			return ws, nil
		}
		lastViolations = blocking
	}

	return nil, fmt.Errorf("%w: %d violations remained after %d attempts", orcherr.ErrMaxIterationsExceeded, len(lastViolations), e.maxIterations)
}

// materializeSpec turns a parsed candidate plus the deterministically
// clarified text into a typed WorkingSpec, applying the risk-tier keyword
// rule, acceptance-criteria extraction with fallback injection, and
// effort estimation (spec §4.4 "Finally the Engine annotates...").
func (e *Engine) materializeSpec(title, enrichedText string, cand candidateSpec) (*spec.WorkingSpec, error) {
	if cand.Title == "" {
		cand.Title = title
	}

	include := cand.ScopeInclude
	if len(include) == 0 {
		include = []string{"**"}
	}
	sc, err := spec.NewScope(include, cand.ScopeExclude)
	if err != nil {
		return nil, err
	}

	maxFiles, maxLOC := cand.MaxFiles, cand.MaxLOC
	if maxFiles <= 0 {
		maxFiles = e.defaultBudget.MaxFiles
	}
	if maxLOC <= 0 {
		maxLOC = e.defaultBudget.MaxLOC
	}
	budget, err := spec.NewChangeBudget(maxFiles, maxLOC)
	if err != nil {
		return nil, err
	}

	tier := spec.ClassifyRiskTier(enrichedText)

	criteria := ExtractAcceptanceCriteria(enrichedText)
	criteria = EnsureMinimumCriteria(cand.Title, criteria)

	ws, err := spec.NewWorkingSpec(cand.Title, cand.Description, enrichedText, tier, sc, budget, criteria)
	if err != nil {
		return nil, err
	}
	ws.Constraints = cand.Constraints
	ws.TestPlan = cand.TestPlan
	ws.RollbackPlan = cand.RollbackPlan
	ws.Effort = EstimateEffort(tier, 1.0)
	return ws, nil
}

// candidatePrompt builds the generation prompt, naming prior violations
// verbatim on repair attempts (spec §4.4 "synthesise a repair prompt that
// names the violations verbatim").
func candidatePrompt(enrichedText string, taskContext map[string]string, violations []spec.Violation) string {
	var sb strings.Builder
	sb.WriteString("Produce a candidate implementation spec as JSON only, matching this shape: ")
	sb.WriteString(`{"title": string, "description": string, "scope_included": [string], "scope_excluded": [string], "max_files": int, "max_loc": int, "constraints": [string], "test_plan": string, "rollback_plan": string}`)
	sb.WriteString("\n\nTask:\n")
	sb.WriteString(enrichedText)

	if len(taskContext) > 0 {
		sb.WriteString("\n\nContext:\n")
		for k, v := range taskContext {
			fmt.Fprintf(&sb, "%s: %s\n", k, v)
		}
	}

	if len(violations) > 0 {
		sb.WriteString("\n\nThe previous candidate was rejected for the following violations; address every one of them:\n")
		for _, v := range violations {
			fmt.Fprintf(&sb, "- [%s] %s: %s\n", v.Severity, v.Code, v.Message)
		}
	}

	return sb.String()
}

func parseCandidateSpec(raw string) (candidateSpec, error) {
	var cand candidateSpec
	if err := json.Unmarshal([]byte(extractJSON(raw)), &cand); err != nil {
		return candidateSpec{}, ErrMalformedCandidate
	}
	return cand, nil
}
