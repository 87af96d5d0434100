package spec

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Scope is an unordered set of path globs marking which files a task is
// allowed (included) or forbidden (excluded) to touch. Included and
// excluded must never overlap: a glob naming the same literal path in both
// sets makes the scope's membership undecidable.
type Scope struct {
	Included []string `json:"included"`
	Excluded []string `json:"excluded"`
}

// NewScope validates and constructs a Scope. Overlap is detected
// structurally (identical glob present in both sets) rather than by
// enumerating the path space, which is consistent with spec invariant 1:
// the two sets must be disjoint as *rule sets*, not as their infinite
// possible matches.
func NewScope(included, excluded []string) (Scope, error) {
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, g := range excluded {
		excludedSet[g] = struct{}{}
	}
	for _, g := range included {
		if _, ok := excludedSet[g]; ok {
			return Scope{}, fmt.Errorf("%w: glob %q", ErrScopeOverlap, g)
		}
	}
	return Scope{Included: included, Excluded: excluded}, nil
}

// Allows reports whether path matches at least one included glob and no
// excluded glob, per the Compliance Validator's scope check (spec §4.3
// item 1).
func (s Scope) Allows(path string) bool {
	matched := false
	for _, g := range s.Included {
		if ok, _ := doublestar.Match(g, path); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, g := range s.Excluded {
		if ok, _ := doublestar.Match(g, path); ok {
			return false
		}
	}
	return true
}

// Violations returns every path in paths not allowed by the scope, in the
// order given, for building one out-of-scope Violation per offending path.
func (s Scope) Violations(paths []string) []string {
	var bad []string
	for _, p := range paths {
		if !s.Allows(p) {
			bad = append(bad, p)
		}
	}
	return bad
}
