package applier

import "github.com/emergent-company/orchestrator/internal/spec"

// DeriveChangeSpecs turns an approved verdict's worker outputs into the
// Change Specifications C8 consumes (spec §3 "Ownership: created by
// C6/C8"). Each output's diff names the paths it touched; this assigns the
// output's full content as the patch for every one of its touched paths,
// since outputs are not required to report per-file patches separately.
func DeriveChangeSpecs(verdict spec.Verdict) []spec.ChangeSpec {
	var changes []spec.ChangeSpec
	for _, out := range verdict.Outputs {
		if len(out.Diff.TouchedPaths) == 0 {
			continue
		}
		perFile := out.Diff.LOC()
		if n := len(out.Diff.TouchedPaths); n > 0 {
			perFile /= n
		}
		for _, path := range out.Diff.TouchedPaths {
			changes = append(changes, spec.ChangeSpec{
				Path:                 path,
				Operation:            spec.OpModify,
				ExpectedLinesChanged: perFile,
				Patch:                out.Content,
			})
		}
	}
	return changes
}
