package spec

import (
	"time"

	"github.com/google/uuid"
)

// WorkingSpec is the typed, validated description of a unit of work — the
// Arbiter's contract of truth (spec §3, GLOSSARY).
type WorkingSpec struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	ContentHash  string                `json:"content_hash"`
	RiskTier     RiskTier              `json:"risk_tier"`
	Scope        Scope                 `json:"scope"`
	ChangeBudget ChangeBudget          `json:"change_budget"`
	Criteria     []AcceptanceCriterion `json:"acceptance_criteria"`
	Constraints  []string              `json:"constraints,omitempty"`
	TestPlan     string                `json:"test_plan,omitempty"`
	RollbackPlan string                `json:"rollback_plan,omitempty"`
	Effort       time.Duration         `json:"effort_estimate"`
	GeneratedAt  time.Time             `json:"generated_at"`

	accepted bool
}

// NewWorkingSpec constructs a WorkingSpec, enforcing spec invariant 1: scope
// disjointness and strictly positive budget values. enrichedContext is the
// fully clarified task description whose content hash becomes the spec's
// provenance hash (spec §4.4 "Clarification protocol").
func NewWorkingSpec(title, description, enrichedContext string, tier RiskTier, scope Scope, budget ChangeBudget, criteria []AcceptanceCriterion) (*WorkingSpec, error) {
	if _, err := NewScope(scope.Included, scope.Excluded); err != nil {
		return nil, err
	}
	if budget.MaxFiles <= 0 || budget.MaxLOC <= 0 {
		return nil, ErrInvalidBudget
	}
	if !tier.Valid() {
		tier = RiskStandard
	}
	return &WorkingSpec{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		ContentHash:  ContentHash(enrichedContext),
		RiskTier:     tier,
		Scope:        scope,
		ChangeBudget: budget,
		Criteria:     criteria,
		GeneratedAt:  time.Now(),
	}, nil
}

// Accept freezes the spec's risk tier, per spec invariant "risk tier
// immutable once accepted".
func (s *WorkingSpec) Accept() {
	s.accepted = true
}

// SetRiskTier changes the risk tier, failing if the spec has already been
// accepted.
func (s *WorkingSpec) SetRiskTier(t RiskTier) error {
	if s.accepted {
		return ErrRiskTierImmutable
	}
	s.RiskTier = t
	return nil
}

// ValidateNonDraft checks the non-draft invariant that acceptance criteria
// must be non-empty (spec §4.2).
func (s *WorkingSpec) ValidateNonDraft() error {
	if len(s.Criteria) == 0 {
		return ErrNoAcceptanceCriteria
	}
	return nil
}
