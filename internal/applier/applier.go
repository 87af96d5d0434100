// Package applier implements the Change Applier (C8): turns an approved
// verdict's change specifications into file operations, snapshotting a
// rollback point before each one and unwinding in LIFO order on failure.
package applier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/emergent-company/orchestrator/internal/compliance"
	"github.com/emergent-company/orchestrator/internal/orcherr"
	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/google/renameio/v2"
)

// ErrScopeOrBudget is returned when the second, defense-in-depth scope or
// budget check (spec §4.8 step 1) rejects a change specification the
// verdict already should have excluded.
var ErrScopeOrBudget = errors.New("applier: change outside scope or budget")

// ErrNonDeterministicResult marks a post-apply rollback triggered by the
// determinism re-check (spec §4.8 "Determinism re-check runs after
// application").
var ErrNonDeterministicResult = errors.New("applier: post-apply content failed determinism re-check")

// Applier satisfies executor.Applier.
type Applier struct {
	root   string
	logger *slog.Logger
}

// New constructs an Applier rooted at dir; all ChangeSpec paths are
// resolved relative to it.
func New(dir string, logger *slog.Logger) *Applier {
	return &Applier{root: dir, logger: logger}
}

func (a *Applier) resolve(path string) string {
	return filepath.Join(a.root, filepath.FromSlash(path))
}

// Apply implements executor.Applier. changes is normally produced from the
// Arbiter's verdict by the caller (the Executor); an empty slice is a no-op.
func (a *Applier) Apply(ctx context.Context, ws *spec.WorkingSpec, task *spec.Task, changes []spec.ChangeSpec) error {
	if len(changes) == 0 {
		return nil
	}

	touched := make([]string, 0, len(changes))
	for _, c := range changes {
		touched = append(touched, c.Path)
	}
	if violations := ws.Scope.Violations(touched); len(violations) > 0 {
		return fmt.Errorf("%w: %v", ErrScopeOrBudget, violations)
	}
	diff := diffStatsFor(changes)
	if !ws.ChangeBudget.Within(diff) {
		return fmt.Errorf("%w: budget exceeded", ErrScopeOrBudget)
	}

	stack := &spec.RollbackStack{}
	var applied []spec.ChangeSpec

	for _, c := range changes {
		if ctx.Err() != nil {
			a.rollback(stack)
			return fmt.Errorf("%w: %v", orcherr.ErrTimeout, ctx.Err())
		}

		if err := a.snapshot(stack, c.Path); err != nil {
			a.rollback(stack)
			return fmt.Errorf("applier: snapshot %s: %w", c.Path, err)
		}

		if err := a.applyOne(c); err != nil {
			a.rollback(stack)
			return fmt.Errorf("applier: apply %s: %w", c.Path, err)
		}
		applied = append(applied, c)
	}

	if err := a.checkDeterminism(applied); err != nil {
		a.rollback(stack)
		return err
	}

	return nil
}

func (a *Applier) applyOne(c spec.ChangeSpec) error {
	full := a.resolve(c.Path)

	switch c.Operation {
	case spec.OpCreate, spec.OpModify:
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := renameio.WriteFile(full, []byte(c.Patch), 0o644); err != nil {
			return err
		}
	case spec.OpDelete:
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return err
		}
	case spec.OpMoveTo:
		if err := os.MkdirAll(filepath.Dir(a.resolve(c.Destination)), 0o755); err != nil {
			return err
		}
		if err := os.Rename(full, a.resolve(c.Destination)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("applier: unknown operation %q", c.Operation)
	}

	if c.PostChecksum != "" {
		actual, err := checksumFile(full)
		if err == nil && actual != c.PostChecksum {
			return fmt.Errorf("applier: post-checksum mismatch for %s", c.Path)
		}
	}

	return nil
}

func (a *Applier) snapshot(stack *spec.RollbackStack, path string) error {
	full := a.resolve(path)
	content, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			stack.Push(spec.RollbackPoint{Path: path, Existed: false, Timestamp: time.Now()})
			return nil
		}
		return err
	}
	stack.Push(spec.RollbackPoint{Path: path, Content: content, Existed: true, Timestamp: time.Now()})
	return nil
}

func (a *Applier) rollback(stack *spec.RollbackStack) {
	for {
		point, ok := stack.Pop()
		if !ok {
			return
		}
		full := a.resolve(point.Path)
		if !point.Existed {
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				a.logger.Error("rollback: failed to remove created file", "path", point.Path, "error", err)
			}
			continue
		}
		if err := renameio.WriteFile(full, point.Content, 0o644); err != nil {
			a.logger.Error("rollback: failed to restore file", "path", point.Path, "error", err)
		}
	}
}

// checkDeterminism re-runs the determinism pattern scan (exposed via
// compliance.DeterminismScore) over the content actually written. The
// security-pattern scan is not re-run here.
func (a *Applier) checkDeterminism(applied []spec.ChangeSpec) error {
	var patches []string
	for _, c := range applied {
		if c.Patch != "" {
			patches = append(patches, c.Patch)
		}
	}
	if len(patches) == 0 {
		return nil
	}
	if score := compliance.DeterminismScore(patches); score < compliance.DeterminismPassScore {
		return fmt.Errorf("%w: score %.4f", ErrNonDeterministicResult, score)
	}
	return nil
}

func diffStatsFor(changes []spec.ChangeSpec) spec.DiffStats {
	d := spec.DiffStats{FilesChanged: len(changes)}
	for _, c := range changes {
		d.LinesAdded += c.ExpectedLinesChanged
		d.TouchedPaths = append(d.TouchedPaths, c.Path)
	}
	return d
}

func checksumFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
