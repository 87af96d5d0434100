package workers

import (
	"context"
	"testing"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
)

func TestExecuteTask_UnknownWorkerErrors(t *testing.T) {
	p := New()
	_, _, err := p.ExecuteTask(context.Background(), "t1", "missing", &spec.WorkingSpec{}, nil)
	assert.ErrorIs(t, err, ErrUnknownWorker)
}

func TestExecuteTask_BusyWorkerRejectsSecondAssignment(t *testing.T) {
	p := New()
	p.RegisterHTTPWorker("w1", "http://example.invalid/task")

	assignment, _, err := p.tryAcquire("t1", "w1")
	assert.NoError(t, err)
	assert.NotNil(t, assignment)

	_, _, err = p.tryAcquire("t2", "w1")
	assert.ErrorIs(t, err, ErrWorkerBusy)

	p.release("w1")
	_, _, err = p.tryAcquire("t3", "w1")
	assert.NoError(t, err)
}

func TestCollectOutputs_StableSortByWorkerID(t *testing.T) {
	outputs := []spec.WorkerOutput{
		{WorkerID: "w3", Content: "c"},
		{WorkerID: "w1", Content: "a"},
		{WorkerID: "", Content: "dropped"},
		{WorkerID: "w2", Content: "b"},
	}
	got := CollectOutputs(outputs)
	if assert.Len(t, got, 3) {
		assert.Equal(t, []string{"w1", "w2", "w3"}, []string{got[0].WorkerID, got[1].WorkerID, got[2].WorkerID})
	}
}
