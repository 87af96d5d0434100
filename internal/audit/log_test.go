package audit

import (
	"testing"
	"time"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_AssignsPerTaskMonotonicSeq(t *testing.T) {
	l := NewLog()
	e1 := l.Append("t1", "executor", spec.ActionEnqueued, spec.CategoryLifecycle, nil)
	e2 := l.Append("t1", "executor", spec.ActionExecAttempt, spec.CategoryLifecycle, nil)
	e3 := l.Append("t2", "executor", spec.ActionEnqueued, spec.CategoryLifecycle, nil)

	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
	assert.Equal(t, uint64(1), e3.Seq)
}

func TestEvents_ReverseChronologicalWithinTask(t *testing.T) {
	l := NewLog()
	l.Append("t1", "a", spec.ActionEnqueued, spec.CategoryLifecycle, nil)
	l.Append("t1", "a", spec.ActionExecAttempt, spec.CategoryLifecycle, nil)
	l.Append("t1", "a", spec.ActionExecSuccess, spec.CategoryLifecycle, nil)

	got := l.Events(Query{TaskID: "t1"})
	require.Len(t, got, 3)
	assert.Equal(t, spec.ActionExecSuccess, got[0].Action)
	assert.Equal(t, spec.ActionExecAttempt, got[1].Action)
	assert.Equal(t, spec.ActionEnqueued, got[2].Action)
}

func TestEvents_FiltersAndPaginates(t *testing.T) {
	l := NewLog()
	for i := 0; i < 5; i++ {
		l.Append("t1", "a", spec.ActionProgress, spec.CategoryLifecycle, nil)
	}
	l.Append("t1", "a", spec.ActionExecSuccess, spec.CategoryLifecycle, nil)

	got := l.Events(Query{TaskID: "t1", Action: spec.ActionProgress, Limit: 2, Offset: 1})
	require.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, spec.ActionProgress, ev.Action)
	}
}

func TestCurrentPhase_ReconstructsFromLastAction(t *testing.T) {
	l := NewLog()
	l.Append("t1", "a", spec.ActionEnqueued, spec.CategoryLifecycle, nil)
	l.Append("t1", "a", spec.ActionExecAttempt, spec.CategoryLifecycle, nil)

	phase, ok := l.CurrentPhase("t1")
	require.True(t, ok)
	assert.Equal(t, spec.PhaseGeneration, phase)
}

func TestCurrentPhase_UnknownTaskReturnsFalse(t *testing.T) {
	l := NewLog()
	_, ok := l.CurrentPhase("missing")
	assert.False(t, ok)
}

func TestAppend_StampsInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLogWithClock(func() time.Time { return fixed })
	ev := l.Append("t1", "a", spec.ActionEnqueued, spec.CategoryLifecycle, nil)
	assert.True(t, ev.Ts.Equal(fixed))
}
