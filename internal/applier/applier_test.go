package applier

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSpec(t *testing.T) *spec.WorkingSpec {
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

func TestApply_CreateThenModifyThenDelete(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, testLogger())
	ws := testSpec(t)

	err := a.Apply(context.Background(), ws, spec.NewTask(ws.ID), []spec.ChangeSpec{
		{Path: "a.txt", Operation: spec.OpCreate, Patch: "hello", ExpectedLinesChanged: 1},
	})
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	err = a.Apply(context.Background(), ws, spec.NewTask(ws.ID), []spec.ChangeSpec{
		{Path: "a.txt", Operation: spec.OpModify, Patch: "updated", ExpectedLinesChanged: 1},
	})
	require.NoError(t, err)
	content, err = os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "updated", string(content))

	err = a.Apply(context.Background(), ws, spec.NewTask(ws.ID), []spec.ChangeSpec{
		{Path: "a.txt", Operation: spec.OpDelete, ExpectedLinesChanged: 1},
	})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestApply_RollsBackOnMidSequenceFailure(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, testLogger())
	ws := testSpec(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("original"), 0o644))

	err := a.Apply(context.Background(), ws, spec.NewTask(ws.ID), []spec.ChangeSpec{
		{Path: "existing.txt", Operation: spec.OpModify, Patch: "changed", ExpectedLinesChanged: 1},
		{Path: "sub/dir/file.txt", Operation: spec.OpMoveTo, Destination: "nonexistent-src-so-rename-fails/x.txt"},
	})
	assert.Error(t, err)

	content, readErr := os.ReadFile(filepath.Join(dir, "existing.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(content))
}

func TestApply_ScopeViolationRejectedBeforeAnyWrite(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, testLogger())

	scope, err := spec.NewScope([]string{"allowed/**"}, nil)
	require.NoError(t, err)
	budget, err := spec.NewChangeBudget(50, 1000)
	require.NoError(t, err)
	ws, err := spec.NewWorkingSpec("t", "d", "e", spec.RiskStandard, scope, budget, []spec.AcceptanceCriterion{
		{ID: "a1", Priority: spec.PriorityMust},
	})
	require.NoError(t, err)

	err = a.Apply(context.Background(), ws, spec.NewTask(ws.ID), []spec.ChangeSpec{
		{Path: "forbidden/file.txt", Operation: spec.OpCreate, Patch: "x", ExpectedLinesChanged: 1},
	})
	assert.ErrorIs(t, err, ErrScopeOrBudget)

	_, statErr := os.Stat(filepath.Join(dir, "forbidden", "file.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApply_EmptyChangesIsNoop(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, testLogger())
	ws := testSpec(t)
	err := a.Apply(context.Background(), ws, spec.NewTask(ws.ID), nil)
	assert.NoError(t, err)
}
