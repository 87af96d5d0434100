package spec

import "github.com/google/uuid"

// Phase is the Autonomous Executor's phase state machine (spec §3, §4.7).
type Phase string

const (
	PhaseQueued      Phase = "queued"
	PhaseAnalysis    Phase = "analysis"
	PhaseGeneration  Phase = "generation"
	PhaseTesting     Phase = "testing"
	PhaseLinting     Phase = "linting"
	PhaseCollecting  Phase = "collecting"
	PhaseArbitrating Phase = "arbitrating"
	PhaseApplying    Phase = "applying"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
	PhaseCanceled    Phase = "canceled"
	PhasePaused      Phase = "paused"
)

// phaseOrder is the canonical sequence a task walks on the happy path
// (spec §4.7 "Phase sequence"); used to validate forward transitions.
var phaseOrder = []Phase{
	PhaseQueued, PhaseAnalysis, PhaseGeneration, PhaseTesting,
	PhaseLinting, PhaseCollecting, PhaseArbitrating, PhaseApplying, PhaseCompleted,
}

// CanAdvance reports whether to is a legal next phase from from: the next
// step in phaseOrder, or one of the terminal/interrupt phases reachable
// from any in-flight phase.
func CanAdvance(from, to Phase) bool {
	switch to {
	case PhaseFailed, PhaseCanceled, PhasePaused:
		return from != PhaseCompleted && from != PhaseFailed && from != PhaseCanceled
	}
	for i, p := range phaseOrder {
		if p == from {
			return i+1 < len(phaseOrder) && phaseOrder[i+1] == to
		}
	}
	// Resuming from paused re-enters the phase it paused at.
	return from == PhasePaused
}

// Task is the Executor's single unit of ownership: exactly one owner, no
// concurrent mutation (spec §3).
type Task struct {
	ID               string `json:"id"`
	SpecID           string `json:"spec_id"`
	Phase            Phase  `json:"phase"`
	Attempt          int    `json:"attempt"`
	BreakerDecisions int    `json:"breaker_decisions"`
}

// NewTask creates a queued task referencing specID.
func NewTask(specID string) *Task {
	return &Task{
		ID:     uuid.NewString(),
		SpecID: specID,
		Phase:  PhaseQueued,
	}
}

// Advance transitions the task to phase, failing closed on an illegal
// transition so the Executor never silently skips a phase.
func (t *Task) Advance(phase Phase) error {
	if !CanAdvance(t.Phase, phase) {
		return ErrInvalidPhaseTransition(t.Phase, phase)
	}
	t.Phase = phase
	return nil
}
