// Package orchestrator wires the Planning Engine, Executor, Worker Pool and
// Audit Log into the operations the RPC surface exposes (spec §6): submit a
// task, drive a clarification session, inspect status, list, and cancel.
// It owns the in-memory task/session registries; C2-C9 themselves are
// stateless or per-call.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/emergent-company/orchestrator/internal/audit"
	"github.com/emergent-company/orchestrator/internal/executor"
	"github.com/emergent-company/orchestrator/internal/planning"
	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/emergent-company/orchestrator/internal/workers"
)

// SubmitResult is submit_task's wire result (spec §6).
type SubmitResult struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"` // "submitted" | "clarification-needed"
	// SessionID is set only when Status is "clarification-needed".
	SessionID string                       `json:"session_id,omitempty"`
	Questions []spec.ClarificationQuestion `json:"questions,omitempty"`
}

// ClarifyResult is clarify_task's wire result.
type ClarifyResult struct {
	Status        string                       `json:"status"`
	NextQuestions []spec.ClarificationQuestion `json:"next_questions,omitempty"`
}

// StatusResult is get_task_status's wire result.
type StatusResult struct {
	Status       string            `json:"status"`
	LastUpdated  string            `json:"last_updated"`
	RecentEvents []spec.AuditEvent `json:"recent_events"`
}

// ListResult is list_tasks's wire result.
type ListResult struct {
	Tasks   []TaskSummary `json:"tasks"`
	HasMore bool          `json:"has_more"`
}

// TaskSummary is one row of list_tasks.
type TaskSummary struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

var (
	// ErrUnknownSession is returned by ClarifyTask for an unrecognized
	// session id.
	ErrUnknownSession = fmt.Errorf("orchestrator: unknown session")
	// ErrUnknownTask is returned by GetStatus/Cancel for an unrecognized
	// task id.
	ErrUnknownTask = fmt.Errorf("orchestrator: unknown task")
)

// pendingSpec tracks a session awaiting enough responses to generate a
// Working Spec and the workers that will execute it once generated.
type pendingSpec struct {
	session   *spec.ClarificationSession
	workerIDs []string
}

// Service is the orchestrator's stateful façade over C4/C5/C6/C7/C9.
type Service struct {
	engine   *planning.Engine
	exec     *executor.Executor
	pool     *workers.Pool
	auditLog *audit.Log
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*pendingSpec
	tasks    map[string]*spec.Task
}

// New constructs a Service.
func New(engine *planning.Engine, exec *executor.Executor, pool *workers.Pool, auditLog *audit.Log, logger *slog.Logger) *Service {
	return &Service{
		engine:   engine,
		exec:     exec,
		pool:     pool,
		auditLog: auditLog,
		logger:   logger,
		sessions: make(map[string]*pendingSpec),
		tasks:    make(map[string]*spec.Task),
	}
}

// SubmitTask implements submit_task(description, risk_tier?, context?) →
// { task_id, status } (spec §6). workerIDs names the pool workers this
// task, once planned, will dispatch to.
func (s *Service) SubmitTask(ctx context.Context, description string, taskContext map[string]string, workerIDs []string) (SubmitResult, error) {
	result, err := s.engine.GenerateSpec(ctx, description, taskContext)
	if err != nil {
		return SubmitResult{}, err
	}

	if result.Clarification != nil {
		session := result.Clarification.Session
		s.mu.Lock()
		s.sessions[session.ID] = &pendingSpec{session: session, workerIDs: workerIDs}
		s.mu.Unlock()
		return SubmitResult{
			Status:    "clarification-needed",
			SessionID: session.ID,
			Questions: session.Questions,
		}, nil
	}

	return s.execute(ctx, result.Spec, workerIDs)
}

// ClarifyTask implements clarify_task(session_id, responses[]) → { status,
// next_questions? } (spec §6). Once every required question is answered,
// the pending spec is generated and handed to the Executor in the
// background; the caller observes this via get_task_status.
func (s *Service) ClarifyTask(ctx context.Context, sessionID string, responses []spec.ClarificationResponse) (ClarifyResult, error) {
	s.mu.Lock()
	pending, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return ClarifyResult{}, ErrUnknownSession
	}

	for _, r := range responses {
		if err := pending.session.ProcessResponse(r); err != nil {
			return ClarifyResult{}, err
		}
	}

	if pending.session.Status != spec.SessionReadyForPlanning {
		return ClarifyResult{Status: string(pending.session.Status), NextQuestions: unanswered(pending.session)}, nil
	}

	ws, err := s.engine.GenerateSpecWithClarification(ctx, pending.session, nil)
	if err != nil {
		return ClarifyResult{}, err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	go s.runInBackground(ws, pending.workerIDs)

	return ClarifyResult{Status: "submitted"}, nil
}

func (s *Service) execute(ctx context.Context, ws *spec.WorkingSpec, workerIDs []string) (SubmitResult, error) {
	result := s.exec.ExecuteWithTracking(ctx, ws, workerIDs)
	s.mu.Lock()
	s.tasks[result.Task.ID] = result.Task
	s.mu.Unlock()
	return SubmitResult{TaskID: result.Task.ID, Status: "submitted"}, nil
}

func (s *Service) runInBackground(ws *spec.WorkingSpec, workerIDs []string) {
	result := s.exec.ExecuteWithTracking(context.Background(), ws, workerIDs)
	s.mu.Lock()
	s.tasks[result.Task.ID] = result.Task
	s.mu.Unlock()
	if result.Err != nil {
		s.logger.Warn("background task execution finished with error", "task_id", result.Task.ID, "error", result.Err)
	}
}

// GetStatus implements get_task_status(task_id) → { status, last_updated,
// recent_events[] }.
func (s *Service) GetStatus(taskID string) (StatusResult, error) {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return StatusResult{}, ErrUnknownTask
	}

	events := s.auditLog.Events(audit.Query{TaskID: taskID, Limit: 3})
	lastUpdated := ""
	if len(events) > 0 {
		lastUpdated = events[0].Ts.Format("2006-01-02T15:04:05.000Z07:00")
	}

	return StatusResult{
		Status:       string(task.Phase),
		LastUpdated:  lastUpdated,
		RecentEvents: events,
	}, nil
}

// ListTasks implements list_tasks(status_filter?, limit, offset) → {
// tasks[], has_more }.
func (s *Service) ListTasks(statusFilter string, limit, offset int) ListResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var filtered []TaskSummary
	for _, id := range ids {
		t := s.tasks[id]
		if statusFilter != "" && string(t.Phase) != statusFilter {
			continue
		}
		filtered = append(filtered, TaskSummary{TaskID: t.ID, Status: string(t.Phase)})
	}

	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	hasMore := false
	if limit > 0 {
		if end < len(filtered) {
			hasMore = true
		} else {
			end = len(filtered)
		}
	} else {
		end = len(filtered)
	}

	return ListResult{Tasks: filtered[offset:end], HasMore: hasMore}
}

// CancelTask implements cancel_task(task_id) → { status }.
func (s *Service) CancelTask(taskID string) (string, error) {
	s.mu.Lock()
	_, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return "", ErrUnknownTask
	}
	s.exec.Cancel(taskID)
	return "canceled", nil
}

func unanswered(session *spec.ClarificationSession) []spec.ClarificationQuestion {
	var out []spec.ClarificationQuestion
	for _, q := range session.Questions {
		if _, answered := session.Responses[q.ID]; !answered {
			out = append(out, q)
		}
	}
	return out
}
