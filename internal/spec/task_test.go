package spec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_AdvanceFollowsPhaseOrder(t *testing.T) {
	task := NewTask("spec-1")
	require.Equal(t, PhaseQueued, task.Phase)

	for _, next := range []Phase{PhaseAnalysis, PhaseGeneration, PhaseTesting, PhaseLinting, PhaseCollecting, PhaseArbitrating, PhaseApplying, PhaseCompleted} {
		require.NoError(t, task.Advance(next))
	}
	assert.Equal(t, PhaseCompleted, task.Phase)
}

func TestTask_AdvanceRejectsSkippingAhead(t *testing.T) {
	task := NewTask("spec-1")
	err := task.Advance(PhaseTesting)
	require.Error(t, err)
}

func TestTask_AdvanceToFailedFromAnyInFlightPhase(t *testing.T) {
	task := NewTask("spec-1")
	require.NoError(t, task.Advance(PhaseAnalysis))
	require.NoError(t, task.Advance(PhaseFailed))
	assert.Equal(t, PhaseFailed, task.Phase)
}

func TestTask_CannotAdvanceFromTerminalPhase(t *testing.T) {
	task := NewTask("spec-1")
	require.NoError(t, task.Advance(PhaseAnalysis))
	require.NoError(t, task.Advance(PhaseCanceled))
	err := task.Advance(PhaseFailed)
	require.Error(t, err)
}

func TestVerdict_BlockedOnRejected(t *testing.T) {
	v := Verdict{Status: VerdictRejected}
	assert.True(t, v.Blocked(nil, time.Now()))
}

func TestVerdict_BlockedOnUnwaivedModified(t *testing.T) {
	v := Verdict{
		Status:         VerdictModified,
		WaiverRequired: true,
		Violations:     []Violation{{Code: ViolationBudgetExceeded, Severity: SeverityMedium}},
	}
	assert.True(t, v.Blocked(nil, time.Now()))

	waiver := Waiver{ViolationCode: ViolationBudgetExceeded, Justification: "approved by lead after review of the tradeoffs"}
	assert.False(t, v.Blocked([]Waiver{waiver}, time.Now()))
}

func TestWaiver_InvalidWhenExpired(t *testing.T) {
	w := Waiver{
		Justification: "approved by lead after review of the tradeoffs",
		TimeBounded:   true,
		Expiry:        time.Now().Add(-time.Hour),
	}
	assert.False(t, w.Valid(time.Now()))
}

func TestWaiver_InvalidWhenJustificationTooShort(t *testing.T) {
	w := Waiver{Justification: "too short"}
	assert.False(t, w.Valid(time.Now()))
}
