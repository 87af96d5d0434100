// Package content provides the orchestrator's RPC prompts and resources
// (spec §6's discovery surface), describing how to drive a task through
// submission, clarification, and review using the five lifecycle methods
// and the discovery tools.
package content

import "github.com/emergent-company/orchestrator/internal/rpc"

// --- submit-task prompt ---

// SubmitTaskPrompt walks a caller through composing a task description
// that will survive ambiguity assessment without triggering a
// clarification round.
type SubmitTaskPrompt struct{}

func (p *SubmitTaskPrompt) Definition() rpc.PromptDefinition {
	return rpc.PromptDefinition{
		Name:        "submit-task",
		Description: "Guide for writing a task description that the Planning Engine can decompose without needing clarification.",
		Arguments:   []rpc.PromptArgument{},
	}
}

func (p *SubmitTaskPrompt) Get(arguments map[string]string) (*rpc.PromptsGetResult, error) {
	return &rpc.PromptsGetResult{
		Description: "Guide for submitting a well-formed task",
		Messages: []rpc.PromptMessage{
			{Role: "user", Content: rpc.TextContent(submitTaskGuide)},
		},
	}, nil
}

const submitTaskGuide = `# Submitting a Task

A task description is sent to the Planning Engine via the submit_task
method. Before calling it, make sure the description answers:

1. **What changes** — name the files, packages, or behavior affected.
2. **What must stay untouched** — anything out of scope, so the Scope
   the engine infers doesn't overreach.
3. **How success is checked** — a test, a command, an observable
   outcome. This becomes the acceptance criteria the Compliance
   Validator checks the diff against.
4. **Risk tier** — the engine infers standard, high, or critical from
   keywords in the description; a risk_tier parameter is not read.

## What happens next

- If the description is ambiguous (missing scope, no success
  criterion, contradictory constraints), submit_task returns a
  clarification session instead of a task id. Answer the questions
  with clarify_task; once every required question has an answer the
  task is planned and run without resubmitting.
- Once accepted, poll get_task_status for the task's phase:
  queued, analysis, generation, testing, linting, collecting,
  arbitrating, applying, completed, failed, or canceled.
- Use cancel_task at any point before completed/failed to stop the
  task; its context is canceled, which aborts in-flight worker calls,
  and the task ends canceled at the next phase check.

## Debugging a rejected change

If a task fails at the arbitrating phase, call the policy-validator or
budget-verifier tools directly with the same diff to see which
violation blocked it, without resubmitting the whole task.
`

// --- clarify-task prompt ---

// ClarifyTaskPrompt explains how to answer an ambiguity assessment's
// clarification questions.
type ClarifyTaskPrompt struct{}

func (p *ClarifyTaskPrompt) Definition() rpc.PromptDefinition {
	return rpc.PromptDefinition{
		Name:        "clarify-task",
		Description: "Guide for answering a clarification session's open questions so a task can proceed to planning.",
		Arguments: []rpc.PromptArgument{
			{Name: "session_id", Description: "clarification session id returned by submit_task", Required: false},
		},
	}
}

func (p *ClarifyTaskPrompt) Get(arguments map[string]string) (*rpc.PromptsGetResult, error) {
	session := arguments["session_id"]
	text := clarifyTaskGuide
	if session != "" {
		text = "Session: " + session + "\n\n" + text
	}
	return &rpc.PromptsGetResult{
		Description: "Guide for resolving a clarification session",
		Messages: []rpc.PromptMessage{
			{Role: "user", Content: rpc.TextContent(text)},
		},
	}, nil
}

const clarifyTaskGuide = `# Resolving a Clarification Session

submit_task returned a clarification session because the Planning
Engine's ambiguity assessment found open questions it can't safely
guess the answer to. Each question targets one of:

- **scope** — which files or packages are in or out of bounds
- **acceptance** — what observable behavior proves the task is done
- **risk** — whether the change touches anything elevated or critical
- **constraints** — conflicting instructions in the original description

Answer every question with clarify_task, passing the session id and
one response per question id. While a required question is unanswered
the session stays open and clarify_task lists the unanswered questions;
once every required question has a response, clarify_task returns
status "submitted" (without a task id) and planning proceeds in the
background. No further round of questions is generated from the answers.
`
