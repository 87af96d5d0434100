// Package audit implements the Event Bus & Audit Log (C9): an append-only,
// ordered log keyed by (task_id, monotonic_counter), generalized from the
// teacher's internal/mcp.Registry singleton-map-with-RWMutex pattern from
// "named tools/prompts/resources" to "append-only events per task".
package audit

import (
	"sort"
	"sync"
	"time"

	"github.com/emergent-company/orchestrator/internal/spec"
)

// Log is the append-only event store. The zero value is not usable; use
// NewLog. Safe for concurrent use by many appenders and readers.
type Log struct {
	mu      sync.RWMutex
	events  []spec.AuditEvent
	nextSeq map[string]uint64 // per task_id monotonic counter
	now     func() time.Time
}

// NewLog constructs an empty Log.
func NewLog() *Log {
	return &Log{
		nextSeq: make(map[string]uint64),
		now:     time.Now,
	}
}

// NewLogWithClock is NewLog with an injectable clock, for deterministic
// ordering tests.
func NewLogWithClock(now func() time.Time) *Log {
	l := NewLog()
	l.now = now
	return l
}

// Append records one event, stamping it with the next monotonic counter for
// its task id and the current time (spec §4.9 "Append-only ordered log
// keyed by (task_id, monotonic_counter)"). Seq and Ts are always assigned
// here; callers cannot supply them.
func (l *Log) Append(taskID, actor string, action spec.AuditAction, category spec.Category, payload map[string]any) spec.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSeq[taskID]++
	ev := spec.AuditEvent{
		TaskID:   taskID,
		Actor:    actor,
		Action:   action,
		Category: category,
		Payload:  payload,
		Seq:      l.nextSeq[taskID],
		Ts:       l.now(),
	}
	l.events = append(l.events, ev)
	return ev
}

// Query is the paginated reverse-chronological query contract (spec §4.9
// "(task_id_filter?, action_filter?, limit, offset) → events").
type Query struct {
	TaskID string
	Action spec.AuditAction // zero value means no filter
	Limit  int
	Offset int
}

// Events returns events matching q, most recent first within each task id's
// ordering (by Seq, ties broken by insertion order), honoring limit/offset.
func (l *Log) Events(q Query) []spec.AuditEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []spec.AuditEvent
	for _, ev := range l.events {
		if q.TaskID != "" && ev.TaskID != q.TaskID {
			continue
		}
		if q.Action != "" && ev.Action != q.Action {
			continue
		}
		matched = append(matched, ev)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].TaskID != matched[j].TaskID {
			return matched[i].TaskID < matched[j].TaskID
		}
		return matched[i].Seq > matched[j].Seq
	})

	if q.Offset >= len(matched) {
		return nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched
}

// CurrentPhase reconstructs a task's phase from its most recent event
// without a dedicated status store (spec §4.9 "last action determines
// current phase").
func (l *Log) CurrentPhase(taskID string) (spec.Phase, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var last *spec.AuditEvent
	for i := range l.events {
		ev := &l.events[i]
		if ev.TaskID != taskID {
			continue
		}
		if last == nil || ev.Seq > last.Seq {
			last = ev
		}
	}
	if last == nil {
		return "", false
	}
	return phaseForAction(last.Action), true
}

// phaseForAction maps the last-observed action to the phase it implies.
// Actions that don't map to a specific phase (progress, worker_assigned,
// quality_check_completed, phase_started, phase_completed) map to
// PhaseAnalysis; CurrentPhase is best-effort reconstruction, not a replacement for
// persisting Task.Phase directly where that's available.
func phaseForAction(a spec.AuditAction) spec.Phase {
	switch a {
	case spec.ActionEnqueued:
		return spec.PhaseQueued
	case spec.ActionExecAttempt:
		return spec.PhaseGeneration
	case spec.ActionExecSuccess:
		return spec.PhaseCompleted
	case spec.ActionExecFailure:
		return spec.PhaseFailed
	case spec.ActionCanceled:
		return spec.PhaseCanceled
	case spec.ActionPaused:
		return spec.PhasePaused
	case spec.ActionVerdictApproved, spec.ActionVerdictModified:
		return spec.PhaseApplying
	case spec.ActionVerdictRejected:
		return spec.PhaseFailed
	default:
		return spec.PhaseAnalysis
	}
}

// TaskIDs returns the distinct task ids with at least one event, in first-
// seen order.
func (l *Log) TaskIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]struct{})
	var ids []string
	for _, ev := range l.events {
		if _, ok := seen[ev.TaskID]; !ok {
			seen[ev.TaskID] = struct{}{}
			ids = append(ids, ev.TaskID)
		}
	}
	return ids
}
