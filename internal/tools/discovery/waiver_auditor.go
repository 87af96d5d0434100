package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emergent-company/orchestrator/internal/rpc"
	"github.com/emergent-company/orchestrator/internal/spec"
)

type waiverAuditorParams struct {
	Waivers    []spec.Waiver    `json:"waivers"`
	Violations []spec.Violation `json:"violations,omitempty"`
}

type waiverAuditEntry struct {
	Waiver    spec.Waiver `json:"waiver"`
	Valid     bool        `json:"valid"`
	Reason    string      `json:"reason,omitempty"`
	CoversAny bool        `json:"covers_any,omitempty"`
}

// WaiverAuditor reports whether a set of waivers is individually valid
// (justification length, expiry) and which open violations each one
// would cover, letting an operator review waivers before they demote a
// blocking violation.
type WaiverAuditor struct{}

func NewWaiverAuditor() *WaiverAuditor { return &WaiverAuditor{} }

func (t *WaiverAuditor) Name() string { return "waiver-auditor" }

func (t *WaiverAuditor) Description() string {
	return "Audit a set of waivers for validity (justification length, expiry) and report which violations each one covers."
}

func (t *WaiverAuditor) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "waivers": {"type": "array"},
    "violations": {"type": "array"}
  },
  "required": ["waivers"]
}`)
}

func (t *WaiverAuditor) Execute(ctx context.Context, params json.RawMessage) (*rpc.ToolsCallResult, error) {
	var p waiverAuditorParams
	if err := json.Unmarshal(params, &p); err != nil {
		return rpc.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	now := time.Now()
	entries := make([]waiverAuditEntry, 0, len(p.Waivers))
	for _, w := range p.Waivers {
		entry := waiverAuditEntry{Waiver: w, Valid: w.Valid(now)}
		if !entry.Valid {
			switch {
			case len(w.Justification) < spec.MinWaiverJustificationLength:
				entry.Reason = fmt.Sprintf("justification shorter than %d characters", spec.MinWaiverJustificationLength)
			case w.TimeBounded && now.After(w.Expiry):
				entry.Reason = "waiver has expired"
			}
		}
		for _, v := range p.Violations {
			if w.Covers(v, now) {
				entry.CoversAny = true
				break
			}
		}
		entries = append(entries, entry)
	}

	return rpc.JSONResult(map[string]any{"waivers": entries})
}
