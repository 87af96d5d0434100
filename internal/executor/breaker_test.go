package executor

import (
	"errors"
	"testing"

	"github.com/emergent-company/orchestrator/internal/orcherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	params := BreakerParams{
		FailureThreshold: 3,
		SuccessThreshold: 1,
	}
	cb := newBreaker("test", params)
	g := guard(cb)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		err := g(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}

	err := g(func() error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherr.ErrCircuitOpen)
}

func TestGuard_ClosedStatePassesThroughSuccess(t *testing.T) {
	cb := newBreaker("test", DefaultBreakerParams())
	g := guard(cb)

	err := g(func() error { return nil })
	assert.NoError(t, err)
}

func TestGuard_BelowThresholdStaysClosed(t *testing.T) {
	params := BreakerParams{FailureThreshold: 5, SuccessThreshold: 2}
	cb := newBreaker("test", params)
	g := guard(cb)

	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		err := g(func() error { return boom })
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, orcherr.ErrCircuitOpen)
	}
}
