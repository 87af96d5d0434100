package spec

import "time"

// AuditAction enumerates the actions that can appear on the event log wire
// format (spec §6). The last action for a task id reconstructs its current
// phase without a dedicated status store (spec §4.9).
type AuditAction string

const (
	ActionEnqueued         AuditAction = "enqueued"
	ActionExecAttempt      AuditAction = "exec_attempt"
	ActionExecSuccess      AuditAction = "exec_success"
	ActionExecFailure      AuditAction = "exec_failure"
	ActionCanceled         AuditAction = "canceled"
	ActionPaused           AuditAction = "paused"
	ActionVerdictApproved  AuditAction = "verdict_approved"
	ActionVerdictRejected  AuditAction = "verdict_rejected"
	ActionVerdictModified  AuditAction = "verdict_modified"
	ActionPhaseStarted     AuditAction = "phase_started"
	ActionPhaseCompleted   AuditAction = "phase_completed"
	ActionProgress         AuditAction = "progress"
	// ActionWorkerAssigned and ActionQualityCheckCompleted are supplemented
	// from original_source/'s richer ExecutionEvent enum (SPEC_FULL §10);
	// they are additive, not a replacement for the action set spec.md names.
	ActionWorkerAssigned        AuditAction = "worker_assigned"
	ActionQualityCheckCompleted AuditAction = "quality_check_completed"
)

// Category groups audit events for filtering.
type Category string

const (
	CategoryLifecycle   Category = "lifecycle"
	CategoryAdjudication Category = "adjudication"
	CategoryPolicy      Category = "policy"
	CategoryWorker      Category = "worker"
	CategoryApply       Category = "apply"
)

// AuditEvent is one entry in the append-only event log (spec §3, §4.9).
type AuditEvent struct {
	TaskID   string         `json:"task_id"`
	Actor    string         `json:"actor"`
	Action   AuditAction    `json:"action"`
	Category Category       `json:"category"`
	Payload  map[string]any `json:"payload,omitempty"`
	Seq      uint64         `json:"seq"`
	Ts       time.Time      `json:"ts"`
}
