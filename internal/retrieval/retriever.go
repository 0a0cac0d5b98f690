package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"policyrag/internal/corpus"
	"policyrag/internal/models"
	"policyrag/internal/providers"
	"policyrag/internal/util"
)

// Retriever embeds a query and ranks corpus chunks against it, optionally
// restricted to one source document.
type Retriever struct {
	store    *corpus.Store
	embedder providers.EmbeddingProvider
	log      *zap.Logger
}

func NewRetriever(store *corpus.Store, embedder providers.EmbeddingProvider, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{store: store, embedder: embedder, log: log}
}

// Retrieve returns the topK most similar chunks for query, highest score
// first. A non-empty scope restricts ranking to chunks whose source document
// name contains scope (case-folded); a scope that matches nothing falls back
// to the full corpus rather than failing. Only an empty corpus or an
// embedding failure produce errors.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, scope string) ([]models.RetrievedChunk, error) {
	if r.store.Size() == 0 {
		return nil, util.ErrEmptyCorpus
	}

	vectors, _, err := r.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "query_embed",
		Inputs:    []string{query},
		Dimension: r.store.Dimension(),
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: provider returned no vector")
	}
	queryVec := vectors[0]
	if len(queryVec) != r.store.Dimension() {
		return nil, fmt.Errorf("embed query: got dimension %d, corpus has %d", len(queryVec), r.store.Dimension())
	}
	// Corpus vectors are unit norm; normalizing the query too keeps scores
	// in cosine range even for backends that return raw vectors.
	queryVec = Normalize(queryVec)

	indices := r.candidateIndices(scope)
	subset := make([][]float32, len(indices))
	for i, gi := range indices {
		subset[i] = r.store.VectorAt(gi)
	}

	hits := Rank(queryVec, subset, topK)
	out := make([]models.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		c := r.store.ChunkAt(indices[h.Index])
		out = append(out, models.RetrievedChunk{
			Text:           c.Text,
			Score:          h.Score,
			Page:           c.Page,
			SourceDocument: c.SourceDocument,
		})
	}
	return out, nil
}

// candidateIndices implements the subset-selection and fallback policy:
// no scope means the whole corpus, a scope that matches nothing degrades to
// the whole corpus, and a matching scope keeps global chunk identity.
func (r *Retriever) candidateIndices(scope string) []int {
	if strings.TrimSpace(scope) == "" {
		return allIndices(r.store.Size())
	}
	matched := ScopeIndices(r.store, scope)
	if len(matched) == 0 {
		r.log.Info("no chunks match document scope, falling back to full corpus",
			zap.String("scope", scope))
		return allIndices(r.store.Size())
	}
	return matched
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
