package executor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/emergent-company/orchestrator/internal/arbiter"
	"github.com/emergent-company/orchestrator/internal/audit"
	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	outputs []spec.WorkerOutput
	errs    []error
}

func (f fakeDispatcher) ExecuteMany(ctx context.Context, taskID string, workerIDs []string, ws *spec.WorkingSpec, guard func(func() error) error) ([]spec.WorkerOutput, []error) {
	if guard != nil {
		for range workerIDs {
			_ = guard(func() error { return nil })
		}
	}
	return f.outputs, f.errs
}

type noopApplier struct{ called bool }

func (a *noopApplier) Apply(ctx context.Context, ws *spec.WorkingSpec, task *spec.Task, changes []spec.ChangeSpec) error {
	a.called = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorkingSpec(t *testing.T) *spec.WorkingSpec {
	t.Helper()
	scope, err := spec.NewScope([]string{"**"}, nil)
	require.NoError(t, err)
	budget, err := spec.NewChangeBudget(50, 1000)
	require.NoError(t, err)
	ws, err := spec.NewWorkingSpec("t", "d", "e", spec.RiskStandard, scope, budget, []spec.AcceptanceCriterion{
		{ID: "a1", Priority: spec.PriorityMust},
	})
	require.NoError(t, err)
	return ws
}

func TestExecuteWithTracking_HappyPathCompletesAndApplies(t *testing.T) {
	dispatch := fakeDispatcher{outputs: []spec.WorkerOutput{
		{WorkerID: "w1", Content: "clean change", Provider: "p"},
	}}
	app := &noopApplier{}
	log := audit.NewLog()

	e := New("exec-1", DefaultBreakerParams(), dispatch, arbiter.New(), app, log, testLogger())
	result := e.ExecuteWithTracking(context.Background(), testWorkingSpec(t), []string{"w1"})

	require.NoError(t, result.Err)
	assert.Equal(t, spec.PhaseCompleted, result.Task.Phase)
	assert.True(t, app.called)
	assert.Equal(t, spec.VerdictApproved, result.Verdict.Status)
}

func TestExecuteWithTracking_NilApplierStillCompletes(t *testing.T) {
	dispatch := fakeDispatcher{outputs: []spec.WorkerOutput{
		{WorkerID: "w1", Content: "clean change", Provider: "p"},
	}}
	log := audit.NewLog()

	e := New("exec-dry-run", DefaultBreakerParams(), dispatch, arbiter.New(), nil, log, testLogger())
	result := e.ExecuteWithTracking(context.Background(), testWorkingSpec(t), []string{"w1"})

	require.NoError(t, result.Err)
	assert.Equal(t, spec.PhaseCompleted, result.Task.Phase)
	assert.Equal(t, spec.VerdictApproved, result.Verdict.Status)
}

func TestExecuteWithTracking_AllWorkersFailMovesToFailed(t *testing.T) {
	dispatch := fakeDispatcher{
		outputs: []spec.WorkerOutput{{}},
		errs:    []error{assertErr{}},
	}
	log := audit.NewLog()
	e := New("exec-2", DefaultBreakerParams(), dispatch, arbiter.New(), nil, log, testLogger())

	result := e.ExecuteWithTracking(context.Background(), testWorkingSpec(t), []string{"w1"})
	assert.Error(t, result.Err)
	assert.Equal(t, spec.PhaseFailed, result.Task.Phase)
}

func TestExecuteWithTracking_TimeoutMarksFailed(t *testing.T) {
	dispatch := fakeDispatcher{outputs: []spec.WorkerOutput{{WorkerID: "w1", Content: "x"}}}
	log := audit.NewLog()
	params := DefaultBreakerParams()
	params.OperationTimeout = 1 * time.Nanosecond
	e := New("exec-3", params, dispatch, arbiter.New(), nil, log, testLogger())

	result := e.ExecuteWithTracking(context.Background(), testWorkingSpec(t), []string{"w1"})
	assert.Error(t, result.Err)
	assert.Equal(t, spec.PhaseFailed, result.Task.Phase)
}

func TestCancel_MovesTaskToCanceled(t *testing.T) {
	dispatch := blockingDispatcher{release: make(chan struct{})}
	log := audit.NewLog()
	e := New("exec-4", DefaultBreakerParams(), dispatch, arbiter.New(), nil, log, testLogger())

	done := make(chan ExecutionResult, 1)
	go func() {
		done <- e.ExecuteWithTracking(context.Background(), testWorkingSpec(t), []string{"w1"})
	}()

	time.Sleep(20 * time.Millisecond)
	for _, id := range activeTaskIDs(e) {
		e.Cancel(id)
	}
	close(dispatch.release)

	select {
	case result := <-done:
		assert.Error(t, result.Err)
		assert.Equal(t, spec.PhaseCanceled, result.Task.Phase)
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not return after cancel")
	}
}

type blockingDispatcher struct {
	release chan struct{}
}

func (b blockingDispatcher) ExecuteMany(ctx context.Context, taskID string, workerIDs []string, ws *spec.WorkingSpec, guard func(func() error) error) ([]spec.WorkerOutput, []error) {
	select {
	case <-ctx.Done():
	case <-b.release:
	}
	return []spec.WorkerOutput{{}}, []error{assertErr{}}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func activeTaskIDs(e *Executor) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	return ids
}
