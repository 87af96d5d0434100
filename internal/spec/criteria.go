package spec

// Priority ranks an acceptance criterion's importance.
type Priority string

const (
	PriorityMust   Priority = "must"
	PriorityShould Priority = "should"
	PriorityCould  Priority = "could"
)

// AcceptanceCriterion is a single Given/When/Then triple.
type AcceptanceCriterion struct {
	ID       string   `json:"id"`
	Given    string   `json:"given"`
	When     string   `json:"when"`
	Then     string   `json:"then"`
	Priority Priority `json:"priority"`
}

// MinAcceptanceCriteria is the floor the Planning Engine guarantees by
// injecting fallback criteria (spec §4.4 "Spec generation").
const MinAcceptanceCriteria = 3
