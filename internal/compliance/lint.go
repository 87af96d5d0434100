package compliance

import (
	"regexp"
	"sync"

	"github.com/emergent-company/orchestrator/internal/spec"
)

// LintAdapter is the closed-tagged-variant extension point for
// language-specific lint checks (spec §4.3 item 6, §9 DESIGN NOTES "Dynamic
// trait/plugin registries ... encode as a closed tagged variant over known
// kinds plus a registration hook"). Each adapter is a Checker; only a
// fixed, known set of constructors may be registered — there is no open
// plugin loading.
type LintAdapter interface {
	Checker
}

var (
	lintMu       sync.RWMutex
	lintRegistry = map[string]LintAdapter{
		"gofmt": gofmtLintAdapter{},
	}
)

// RegisterLintAdapter adds a named adapter to the closed registry. Intended
// to be called only from this package's init-time wiring or from
// cmd/orchestratord's startup; it is not a dynamic plugin hook.
func RegisterLintAdapter(name string, adapter LintAdapter) {
	lintMu.Lock()
	defer lintMu.Unlock()
	lintRegistry[name] = adapter
}

func registeredLintAdapters() []Checker {
	lintMu.RLock()
	defer lintMu.RUnlock()
	out := make([]Checker, 0, len(lintRegistry))
	for _, a := range lintRegistry {
		out = append(out, a)
	}
	return out
}

// gofmtLintAdapter is the one shipped adapter: a conservative, regex-based
// stand-in for `gofmt -l` / `go vet`-style formatting checks, grounded on
// the reporting-conventions style of golang.org/x/tools/go/analysis as
// referenced by the pack's joeycumines-go-utilpkg toolchain wiring
// (SPEC_FULL §4.3). It flags the one formatting defect cheaply detectable
// without invoking the toolchain: trailing whitespace on a changed line.
type gofmtLintAdapter struct{}

func (gofmtLintAdapter) Name() string { return "gofmt" }

var trailingWhitespace = regexp.MustCompile(`[ \t]+\n`)

func (gofmtLintAdapter) Check(in Input) []spec.Violation {
	var violations []spec.Violation
	for _, patch := range in.Patches {
		if trailingWhitespace.MatchString(patch) {
			violations = append(violations, spec.Violation{
				Code:            spec.ViolationRuleViolation,
				Severity:        spec.SeverityLow,
				Message:         "patch contains trailing whitespace (gofmt would reformat)",
				RemediationHint: "run gofmt before submitting",
			})
			break
		}
	}
	return violations
}
