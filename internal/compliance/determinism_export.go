package compliance

// DeterminismScore exposes the pattern-scan scorer to other components (the
// Autonomous Executor's determinism hook, spec §4.7) without requiring them
// to re-run the full Validate pipeline. It returns the lowest score across
// patches, or 1.0 (perfectly deterministic) if patches is empty.
func DeterminismScore(patches []string) float64 {
	lowest := 1.0
	for _, p := range patches {
		score, _ := scoreDeterminism(p)
		if score < lowest {
			lowest = score
		}
	}
	return lowest
}
