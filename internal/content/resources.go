package content

import "github.com/emergent-company/orchestrator/internal/rpc"

// --- orchestrator://policy-reference resource ---

// PolicyReferenceResource documents the Compliance Validator's violation
// codes and severities so a caller can interpret get_task_status output
// or a policy-validator tool result without reading the source.
type PolicyReferenceResource struct{}

func (r *PolicyReferenceResource) Definition() rpc.ResourceDefinition {
	return rpc.ResourceDefinition{
		URI:         "orchestrator://policy-reference",
		Name:        "Policy Reference",
		Description: "Violation codes, severities, and blocking rules the Compliance Validator enforces.",
		MimeType:    "text/markdown",
	}
}

func (r *PolicyReferenceResource) Read() (*rpc.ResourcesReadResult, error) {
	return &rpc.ResourcesReadResult{
		Contents: []rpc.ResourceContent{
			{URI: r.Definition().URI, MimeType: "text/markdown", Text: policyReferenceContent},
		},
	}, nil
}

const policyReferenceContent = `# Policy Reference

## Violation codes

| Code | Meaning |
|---|---|
| out-of-scope | a touched path falls outside the Working Spec's included scope, or inside its excluded scope |
| budget-exceeded | the diff's files-changed or lines-of-code total exceeds the Change Budget |
| missing-tests | the diff has no accompanying test changes and the Working Spec requires them |
| non-deterministic | the diff's patches contain a non-deterministic construct (wall-clock time, random, map iteration order) with no waiver |
| disallowed-tool | a patch builds a shell command from interpolated input (e.g. sh -c, shell=True) |
| rule-violation | a project-specific compliance rule rejected the diff |
| security-hardcoded-secret | a patch appears to hardcode a credential or API key |
| unsafe-construct | a patch uses an eval-like construct (eval, exec, new Function) |

## Severities

low < medium < high < critical. Every violation that is not
informational blocks the task from advancing to applying, whatever its
severity; a violation covered by an active Waiver is marked
informational. Severity decides the verdict: a critical violation, or a
hardcoded secret at high severity, makes it rejected; any other blocking
violation makes it modified with a waiver required.

## Waivers

A Waiver covers one violation code, optionally until an expiry time,
and requires a justification of at least 20 characters. An expired
waiver, or one with a shorter justification, is invalid and covers nothing; covering a violation does not
remove it from the report, it only excuses it from blocking.
`

// --- orchestrator://method-reference resource ---

// MethodReferenceResource documents the five task-lifecycle RPC methods
// and the discovery tools available over tools/call.
type MethodReferenceResource struct{}

func (r *MethodReferenceResource) Definition() rpc.ResourceDefinition {
	return rpc.ResourceDefinition{
		URI:         "orchestrator://method-reference",
		Name:        "Method Reference",
		Description: "The five task-lifecycle RPC methods and the discovery tools exposed over tools/call.",
		MimeType:    "text/markdown",
	}
}

func (r *MethodReferenceResource) Read() (*rpc.ResourcesReadResult, error) {
	return &rpc.ResourcesReadResult{
		Contents: []rpc.ResourceContent{
			{URI: r.Definition().URI, MimeType: "text/markdown", Text: methodReferenceContent},
		},
	}, nil
}

const methodReferenceContent = `# Method Reference

## Task lifecycle

- **submit_task**(description, context?, worker_ids?) — hands a task
  description to the Planning Engine. Returns either a task id or a
  clarification session id.
- **clarify_task**(session_id, responses) — answers a clarification
  session's open questions. Returns status "submitted" once every
  required question is answered (the task then runs in the background),
  or the questions still unanswered.
- **get_task_status**(task_id) — returns the task's current phase and
  recent audit events.
- **list_tasks**(status_filter?, limit?, offset?) — paginates tasks,
  optionally filtered to one phase.
- **cancel_task**(task_id) — requests cancellation; the task's context
  is canceled, which aborts in-flight worker calls, and no further phase
  runs.

## Discovery tools (tools/call)

- **policy-validator** — run the Compliance Validator against an
  ad-hoc scope, budget, and diff without a live task.
- **waiver-auditor** — check whether a set of waivers is valid and
  which violations they cover.
- **budget-verifier** — check a diff's file/LOC counts against a
  Change Budget.
- **debate-orchestrator** — adjudicate a set of worker outputs the
  way the Arbiter would mid-task, including tie-breaking.
- **task-decomposer** — extract acceptance criteria and a risk report
  from a task description without submitting it.

## Risk tiers

standard, high, critical (ascending). Acceptance criteria carry a
priority of must, should, or could. A spec always carries at least
three criteria, padded with could-priority fallback criteria when fewer
are extracted; no must-priority criterion is required.
`
