package retrieval

import (
	"strings"

	"policyrag/internal/corpus"
)

// ScopeIndices returns the positions of chunks whose source document name
// contains scope, case-folded. Matching is an unanchored substring test, so
// a scope of "policy" matches "Policy_2024.pdf". An ambiguous scope can
// match several documents; that widening is accepted as best-effort
// convenience matching.
func ScopeIndices(store *corpus.Store, scope string) []int {
	needle := strings.ToLower(strings.TrimSpace(scope))
	if needle == "" {
		return nil
	}
	var matched []int
	for i := 0; i < store.Size(); i++ {
		if strings.Contains(strings.ToLower(store.ChunkAt(i).SourceDocument), needle) {
			matched = append(matched, i)
		}
	}
	return matched
}
