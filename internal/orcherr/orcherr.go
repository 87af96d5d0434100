// Package orcherr defines the eight error kinds shared across components,
// each with a fixed surfacing policy (spec §7). Components wrap these
// sentinels with fmt.Errorf("%w: ...") rather than inventing ad-hoc error
// types, mirroring the teacher repo's internal/validation sentinel-error
// convention.
package orcherr

import "errors"

// Kind identifies which of the eight error kinds an error belongs to.
type Kind string

const (
	KindClarificationRequired Kind = "ClarificationRequired"
	KindValidationError       Kind = "ValidationError"
	KindWorkerError           Kind = "WorkerError"
	KindTimeoutError          Kind = "TimeoutError"
	KindCircuitOpen           Kind = "CircuitOpen"
	KindPolicyViolation       Kind = "PolicyViolation"
	KindConfigurationError    Kind = "ConfigurationError"
	KindIOError               Kind = "IOError"
)

var (
	// ErrValidation is recovered locally by the repair loop; surfaced only
	// if the iteration budget is exhausted (spec §7).
	ErrValidation = errors.New("validation error")
	// ErrWorker is counted by the circuit breaker and retried within its
	// budget.
	ErrWorker = errors.New("worker error")
	// ErrTimeout surfaces immediately; the task moves to failed and a
	// rollback is triggered.
	ErrTimeout = errors.New("timeout error")
	// ErrCircuitOpen surfaces immediately; no worker call is made.
	ErrCircuitOpen = errors.New("circuit open")
	// ErrConfiguration is fatal to the operation and never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrIO is retried with bounded exponential backoff; after exhaustion it
	// is surfaced and triggers rollback.
	ErrIO = errors.New("io error")
	// ErrMaxIterationsExceeded terminates the Planning Engine's spec
	// generation validation loop.
	ErrMaxIterationsExceeded = errors.New("max repair iterations exceeded")
	// ErrLLM wraps a failure from the text-generation provider.
	ErrLLM = errors.New("llm error")
)

// PolicyViolation is not an error in the Go sense at most call sites — it is
// a first-class result (a Verdict or ValidationResult carrying Violations).
// It is defined here as a type so places that do need to return it as an
// error (e.g. a tool-call path that short-circuits) can still participate
// in errors.Is/As.
type PolicyViolation struct {
	Message string
}

func (e *PolicyViolation) Error() string { return "policy violation: " + e.Message }
