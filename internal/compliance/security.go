package compliance

import (
	"fmt"
	"regexp"

	"github.com/emergent-company/orchestrator/internal/spec"
)

type securityPattern struct {
	name    string
	re      *regexp.Regexp
	code    spec.ViolationCode
	severity spec.Severity
}

var securityPatterns = []securityPattern{
	{
		name:     "hardcoded-secret",
		re:       regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*["'][A-Za-z0-9+/_-]{12,}["']`),
		code:     spec.ViolationSecurityHardcodedSecret,
		severity: spec.SeverityCritical,
	},
	{
		name:     "shell-interpolation",
		re:       regexp.MustCompile("(?i)(exec\\.Command\\(\"sh\"|os/exec.*-c|subprocess\\.call\\(.*shell=True)"),
		code:     spec.ViolationDisallowedTool,
		severity: spec.SeverityHigh,
	},
	{
		name:     "eval-like-construct",
		re:       regexp.MustCompile(`(?i)\b(eval\(|exec\(|new Function\()`),
		code:     spec.ViolationUnsafeConstruct,
		severity: spec.SeverityHigh,
	},
}

// scanSecurity applies every security pattern to patch (spec §4.3 item 5).
func scanSecurity(patch string) []spec.Violation {
	var violations []spec.Violation
	for _, p := range securityPatterns {
		if p.re.MatchString(patch) {
			violations = append(violations, spec.Violation{
				Code:            p.code,
				Severity:        p.severity,
				Message:         fmt.Sprintf("patch matches disallowed pattern %q", p.name),
				RemediationHint: "remove the flagged construct or route secrets through the configured secret store",
			})
		}
	}
	return violations
}
