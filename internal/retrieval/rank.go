package retrieval

import "sort"

// Hit pairs a candidate's position in the ranked-over vector set with its
// similarity score.
type Hit struct {
	Index int
	Score float64
}

// Rank scores every candidate vector against the query by dot product
// (cosine similarity for unit-norm vectors) and returns the topK best,
// highest first. Candidates with bit-identical scores keep ascending index
// order, so the ranking is fully deterministic. topK larger than the
// candidate set is clamped silently; an empty candidate set yields no hits.
func Rank(query []float32, vectors [][]float32, topK int) []Hit {
	if topK < 1 || len(vectors) == 0 {
		return nil
	}
	hits := make([]Hit, len(vectors))
	for i, v := range vectors {
		hits[i] = Hit{Index: i, Score: Dot(query, v)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Index < hits[j].Index
		}
		return hits[i].Score > hits[j].Score
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
