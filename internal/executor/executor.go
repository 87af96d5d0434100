// Package executor implements the Autonomous Executor (C7): the central
// phase state machine that drives a task from queued to completed, guarded
// by a per-instance circuit breaker and per-task timeout. The
// goroutine-per-task shape generalizes the teacher's
// internal/scheduler.Scheduler from "goroutine per periodic job" to
// "goroutine per in-flight task".
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emergent-company/orchestrator/internal/applier"
	"github.com/emergent-company/orchestrator/internal/arbiter"
	"github.com/emergent-company/orchestrator/internal/audit"
	"github.com/emergent-company/orchestrator/internal/compliance"
	"github.com/emergent-company/orchestrator/internal/orcherr"
	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/emergent-company/orchestrator/internal/workers"
	"github.com/sony/gobreaker"
)

// WorkerDispatcher is the subset of workers.Pool the Executor needs,
// decoupling it from the concrete pool implementation for testing.
type WorkerDispatcher interface {
	ExecuteMany(ctx context.Context, taskID string, workerIDs []string, ws *spec.WorkingSpec, guard func(func() error) error) ([]spec.WorkerOutput, []error)
}

// Applier is the subset of the Change Applier (C8) the Executor invokes on
// an approved verdict.
type Applier interface {
	Apply(ctx context.Context, ws *spec.WorkingSpec, task *spec.Task, changes []spec.ChangeSpec) error
}

// ExecutionResult is execute_with_tracking's return value (spec §4.7).
type ExecutionResult struct {
	Task    *spec.Task
	Verdict *spec.Verdict
	Outputs []spec.WorkerOutput
	Err     error
}

// ArbiterMediatedResult is execute_with_arbiter's return value. It carries
// the same fields as ExecutionResult — the public contract names two
// operations but one state machine produces both; execute_with_arbiter is
// the same run with its verdict guaranteed non-nil on success.
type ArbiterMediatedResult = ExecutionResult

// Executor is the state machine for one logical executor instance (one
// circuit breaker, shared across the tasks it runs).
type Executor struct {
	breaker  *gobreaker.CircuitBreaker
	dispatch WorkerDispatcher
	arbiter  *arbiter.Arbiter
	applier  Applier
	auditLog *audit.Log
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New constructs an Executor. applier may be nil if the caller only wants
// adjudication without applying changes (e.g. dry runs, tests).
func New(name string, params BreakerParams, dispatch WorkerDispatcher, arb *arbiter.Arbiter, app Applier, auditLog *audit.Log, logger *slog.Logger) *Executor {
	return &Executor{
		breaker:  newBreaker(name, params),
		dispatch: dispatch,
		arbiter:  arb,
		applier:  app,
		auditLog: auditLog,
		timeout:  params.OperationTimeout,
		logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Cancel implements cancel(task_id) (spec §4.7 "A cancel request moves the
// task to canceled at the next phase boundary"). It is non-blocking: it
// cancels the task's context, and the run loop observes it at its next
// phase-boundary check.
func (e *Executor) Cancel(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel, ok := e.cancels[taskID]; ok {
		cancel()
	}
}

// ExecuteWithTracking implements execute_with_tracking(spec) →
// ExecutionResult (spec §4.7 public contract): the full phase sequence with
// phase_started/phase_completed events around each phase. No progress
// events are emitted while a phase runs.
func (e *Executor) ExecuteWithTracking(ctx context.Context, ws *spec.WorkingSpec, workerIDs []string) ExecutionResult {
	task := spec.NewTask(ws.ID)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	e.mu.Lock()
	e.cancels[task.ID] = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, task.ID)
		e.mu.Unlock()
	}()

	e.auditLog.Append(task.ID, "executor", spec.ActionEnqueued, spec.CategoryLifecycle, nil)

	result := e.run(ctx, task, ws, workerIDs)
	return result
}

// ExecuteWithArbiter implements execute_with_arbiter(spec) →
// ArbiterMediatedResult (spec §4.7 public contract): identical machinery,
// exposed under the name the adjudication-focused caller expects.
func (e *Executor) ExecuteWithArbiter(ctx context.Context, ws *spec.WorkingSpec, workerIDs []string) ArbiterMediatedResult {
	return e.ExecuteWithTracking(ctx, ws, workerIDs)
}

func (e *Executor) run(ctx context.Context, task *spec.Task, ws *spec.WorkingSpec, workerIDs []string) ExecutionResult {
	phases := []spec.Phase{
		spec.PhaseAnalysis, spec.PhaseGeneration, spec.PhaseTesting,
		spec.PhaseLinting, spec.PhaseCollecting, spec.PhaseArbitrating,
	}

	var outputs []spec.WorkerOutput
	var verdict *spec.Verdict

	for _, phase := range phases {
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return e.terminate(task, spec.PhaseFailed, outputs, verdict, orcherr.ErrTimeout)
			}
			return e.terminate(task, spec.PhaseCanceled, outputs, verdict, fmt.Errorf("%w: %v", errCanceled, ctx.Err()))
		}

		if err := e.advance(task, phase); err != nil {
			return e.terminate(task, spec.PhaseFailed, outputs, verdict, err)
		}

		started := time.Now()
		e.auditLog.Append(task.ID, "executor", spec.ActionPhaseStarted, spec.CategoryLifecycle, map[string]any{"phase": string(phase)})

		var phaseErr error
		switch phase {
		case spec.PhaseCollecting:
			outputs, phaseErr = e.collect(ctx, task, ws, workerIDs)
		case spec.PhaseArbitrating:
			verdict, phaseErr = e.adjudicate(ws, task, outputs)
		}

		e.auditLog.Append(task.ID, "executor", spec.ActionPhaseCompleted, spec.CategoryLifecycle, map[string]any{
			"phase":       string(phase),
			"duration_ms": time.Since(started).Milliseconds(),
		})

		if phaseErr != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return e.terminate(task, spec.PhaseCanceled, outputs, verdict, fmt.Errorf("%w: %v", errCanceled, ctx.Err()))
			}
			return e.terminate(task, spec.PhaseFailed, outputs, verdict, phaseErr)
		}
	}

	if verdict != nil && verdict.Blocked(nil, time.Now()) {
		return e.terminate(task, spec.PhaseFailed, outputs, verdict, &orcherr.PolicyViolation{Message: verdict.Rationale})
	}

	if err := e.advance(task, spec.PhaseApplying); err != nil {
		return e.terminate(task, spec.PhaseFailed, outputs, verdict, err)
	}
	if e.applier != nil && verdict != nil && verdict.Status != spec.VerdictRejected {
		if err := e.applier.Apply(ctx, ws, task, applier.DeriveChangeSpecs(*verdict)); err != nil {
			return e.terminate(task, spec.PhaseFailed, outputs, verdict, err)
		}
	}

	if err := e.advance(task, spec.PhaseCompleted); err != nil {
		return e.terminate(task, spec.PhaseFailed, outputs, verdict, err)
	}
	e.auditLog.Append(task.ID, "executor", spec.ActionExecSuccess, spec.CategoryLifecycle, nil)

	return ExecutionResult{Task: task, Verdict: verdict, Outputs: outputs}
}

func (e *Executor) advance(task *spec.Task, phase spec.Phase) error {
	if err := task.Advance(phase); err != nil {
		return fmt.Errorf("%w: %v", orcherr.ErrValidation, err)
	}
	return nil
}

func (e *Executor) collect(ctx context.Context, task *spec.Task, ws *spec.WorkingSpec, workerIDs []string) ([]spec.WorkerOutput, error) {
	if len(workerIDs) == 0 {
		return nil, nil
	}

	raw, errs := e.dispatch.ExecuteMany(ctx, task.ID, workerIDs, ws, guard(e.breaker))
	var failures int
	for i, err := range errs {
		if err == nil {
			continue
		}
		failures++
		if errors.Is(err, orcherr.ErrCircuitOpen) {
			return nil, err
		}
		e.logger.Warn("worker failed", "task_id", task.ID, "worker_id", workerIDs[i], "error", err)
	}
	if failures == len(workerIDs) {
		return nil, fmt.Errorf("%w: all %d workers failed", orcherr.ErrWorker, len(workerIDs))
	}

	return workers.CollectOutputs(raw), nil
}

func (e *Executor) adjudicate(ws *spec.WorkingSpec, task *spec.Task, outputs []spec.WorkerOutput) (*spec.Verdict, error) {
	var patches []string
	for _, o := range outputs {
		if o.Content != "" {
			patches = append(patches, o.Content)
		}
	}

	// Determinism hook: a pattern-based scan over collected outputs, fed
	// into the Validator as the deterministic flag (spec §4.7 "After
	// collection and before adjudication...").
	score := compliance.DeterminismScore(patches)
	deterministic := score >= compliance.DeterminismPassScore
	if !deterministic {
		e.auditLog.Append(task.ID, "executor", spec.ActionQualityCheckCompleted, spec.CategoryPolicy, map[string]any{
			"determinism_score": score,
		})
	}

	testsAdded := false // the Collector does not itself know about test files; callers that do should pre-populate WorkerOutput.Metadata and have the Arbiter's compliance.Input wired accordingly in a future extension.
	v := e.arbiter.Adjudicate(ws, task, outputs, testsAdded, deterministic, nil)

	switch v.Status {
	case spec.VerdictApproved:
		e.auditLog.Append(task.ID, "arbiter", spec.ActionVerdictApproved, spec.CategoryAdjudication, nil)
	case spec.VerdictModified:
		e.auditLog.Append(task.ID, "arbiter", spec.ActionVerdictModified, spec.CategoryAdjudication, nil)
	case spec.VerdictRejected:
		e.auditLog.Append(task.ID, "arbiter", spec.ActionVerdictRejected, spec.CategoryAdjudication, nil)
	}

	return &v, nil
}

func (e *Executor) terminate(task *spec.Task, phase spec.Phase, outputs []spec.WorkerOutput, verdict *spec.Verdict, err error) ExecutionResult {
	if task.Phase != phase && task.Phase != spec.PhaseCompleted {
		_ = task.Advance(phase)
	}

	switch phase {
	case spec.PhaseCanceled:
		e.auditLog.Append(task.ID, "executor", spec.ActionCanceled, spec.CategoryLifecycle, nil)
	default:
		e.auditLog.Append(task.ID, "executor", spec.ActionExecFailure, spec.CategoryLifecycle, map[string]any{"error": err.Error()})
	}

	return ExecutionResult{Task: task, Verdict: verdict, Outputs: outputs, Err: err}
}
