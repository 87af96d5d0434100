package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/emergent-company/orchestrator/internal/orcherr"
	"github.com/sony/gobreaker"
)

// BreakerParams names the circuit breaker's five parameters per executor
// instance (spec §4.7 "Named per executor instance. Parameters: failure
// threshold F, success threshold S, reset-timeout R, operation-timeout T,
// window W").
type BreakerParams struct {
	FailureThreshold uint32
	SuccessThreshold uint32
	ResetTimeout     time.Duration
	OperationTimeout time.Duration
	Window           time.Duration
}

// DefaultBreakerParams is the documented zero-config default (spec §6):
// F=5, R=60s, per-task timeout 300s. Success threshold and window are not
// named in the external-interfaces table; 2 and 60s are conservative
// choices consistent with gobreaker's half-open/closed semantics.
func DefaultBreakerParams() BreakerParams {
	return BreakerParams{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     60 * time.Second,
		OperationTimeout: 300 * time.Second,
		Window:           60 * time.Second,
	}
}

// newBreaker builds a gobreaker instance implementing the state machine in
// spec §4.7: "closed → (F failures in W) → open → (after R) → half-open →
// (S successes) → closed / (one failure) → open". gobreaker's MaxRequests
// field is the number of trial calls let through in half-open state — all
// must succeed to close again, which is exactly "S successes" when
// MaxRequests is set to S.
func newBreaker(name string, p BreakerParams) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: p.SuccessThreshold,
		Interval:    p.Window,
		Timeout:     p.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= p.FailureThreshold
		},
	})
}

// guard adapts a gobreaker instance to the func(func() error) error shape
// workers.Pool.ExecuteTask expects, translating gobreaker's open-state
// sentinel into orcherr.ErrCircuitOpen (spec §4.7 "open state
// short-circuits with a worker-error").
func guard(cb *gobreaker.CircuitBreaker) func(func() error) error {
	return func(fn func() error) error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", orcherr.ErrCircuitOpen, err)
		}
		return err
	}
}
