package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls   atomic.Int32
	reply   string
	failN   int32 // fail this many calls before succeeding
	failErr error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	n := f.calls.Add(1)
	if n <= f.failN {
		if f.failErr != nil {
			return "", f.failErr
		}
		return "", errors.New("transient failure")
	}
	return f.reply, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_GenerateCachesOnFirstCall(t *testing.T) {
	p := &fakeProvider{reply: "hello"}
	c := NewClient(p, time.Minute, testLogger())

	resp1, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp1)
	assert.Equal(t, int32(1), p.calls.Load())

	resp2, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp2)
	assert.Equal(t, int32(1), p.calls.Load(), "second call should be served from cache")
}

func TestClient_GenerateExpiresAfterTTL(t *testing.T) {
	p := &fakeProvider{reply: "hello"}
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewClientWithClock(p, time.Second, testLogger(), clock)

	_, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.calls.Load())

	now = now.Add(2 * time.Second)
	_, err = c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load(), "expired entry should be refetched")
}

func TestClient_GenerateUncachedNeverCaches(t *testing.T) {
	p := &fakeProvider{reply: "sensitive"}
	c := NewClient(p, time.Minute, testLogger())

	_, err := c.GenerateUncached(context.Background(), "pii prompt")
	require.NoError(t, err)
	assert.Equal(t, 0, c.CacheSize())
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	p := &fakeProvider{reply: "ok", failN: 2}
	c := NewClient(p, time.Minute, testLogger())
	c.maxRetry = 0 // exercise backoff.Retry's own internal attempt loop directly below instead

	// With maxRetry 0 the operation only gets one attempt, so it should fail.
	_, err := c.GenerateUncached(context.Background(), "x")
	require.Error(t, err)

	p.calls.Store(0)
	c.maxRetry = 5
	resp, err := c.GenerateUncached(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestClient_HealthCheck(t *testing.T) {
	p := &fakeProvider{reply: "pong"}
	c := NewClient(p, time.Minute, testLogger())
	require.NoError(t, c.HealthCheck(context.Background()))
}
