package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// canonicalHash produces a deterministic content hash over v by
// round-tripping it through a map with sorted keys before hashing its JSON
// encoding. encoding/json already sorts map keys on marshal, so this gives
// the same hash for the same logical content regardless of struct field
// order or how the value was constructed — the "canonical content hash"
// spec §3 and §4.2 require, without needing a bespoke canonicalizing
// encoder library (none in the retrieved pack offers one; this is the
// stdlib-justified implementation logged in DESIGN.md).
func canonicalHash(v any) (string, error) {
	generic, err := toGeneric(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// toGeneric round-trips v through JSON into a map[string]any/[]any tree so
// that json.Marshal's sorted-map-key behavior applies uniformly.
func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// ContentHash computes the canonical content hash for enriched context text,
// used as the Working Spec's provenance hash (spec §4.2, §4.4 enrichment).
func ContentHash(enrichedText string) string {
	sum := sha256.Sum256([]byte(enrichedText))
	return hex.EncodeToString(sum[:])
}

// sortedStrings returns a sorted copy of ss, used where set membership
// matters but input order doesn't (e.g. hashing scope globs).
func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
