// Package spec defines the Working Spec data model: the typed representation
// of specs, verdicts, violations, and waivers that every other component
// exchanges instead of passing around loosely-typed maps.
package spec

import (
	"errors"
	"fmt"
)

var (
	// ErrScopeOverlap is returned when a Scope's included and excluded globs
	// intersect — the spec has no well-defined set of touchable paths.
	ErrScopeOverlap = errors.New("spec: scope included and excluded globs overlap")
	// ErrInvalidBudget is returned when a ChangeBudget has a non-positive field.
	ErrInvalidBudget = errors.New("spec: change budget values must be strictly positive")
	// ErrNoAcceptanceCriteria is returned when a non-draft spec has zero
	// acceptance criteria.
	ErrNoAcceptanceCriteria = errors.New("spec: at least one acceptance criterion is required")
	// ErrRiskTierImmutable is returned when code attempts to change the risk
	// tier of a spec that has already been accepted.
	ErrRiskTierImmutable = errors.New("spec: risk tier is immutable once accepted")
	// ErrInvalidWaiver is returned when a waiver's justification is too short
	// or it has expired.
	ErrInvalidWaiver = errors.New("spec: waiver is invalid or expired")
	// ErrUnknownQuestion is returned when a clarification response names a
	// question id that was never asked.
	ErrUnknownQuestion = errors.New("spec: response references unknown question id")
	// ErrSessionSealed is returned when a response arrives after a
	// clarification session has left the active state.
	ErrSessionSealed = errors.New("spec: clarification session is no longer active")
	// ErrMissingRequiredAnswers is returned when ready-for-planning is
	// requested while a required question has no response.
	ErrMissingRequiredAnswers = errors.New("spec: required clarification questions are unanswered")
	// errInvalidPhaseTransition is the sentinel wrapped by ErrInvalidPhaseTransition.
	errInvalidPhaseTransition = errors.New("spec: invalid phase transition")
)

// ErrInvalidPhaseTransition formats a phase-transition error naming both
// phases, wrapping errInvalidPhaseTransition for errors.Is matching.
func ErrInvalidPhaseTransition(from, to Phase) error {
	return fmt.Errorf("%w: %s -> %s", errInvalidPhaseTransition, from, to)
}
