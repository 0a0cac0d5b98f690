package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"policyrag/internal/corpus"
	"policyrag/internal/models"
	"policyrag/internal/providers"
	"policyrag/internal/util"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, providers.ProviderInfo{Name: "stub"}, s.err
	}
	out := make([][]float32, len(req.Inputs))
	for i := range req.Inputs {
		out[i] = s.vec
	}
	return out, providers.ProviderInfo{Name: "stub"}, nil
}

func testStore(t *testing.T) *corpus.Store {
	t.Helper()
	p3, p7, p9 := 3, 7, 9
	s, err := corpus.NewStore(
		[]models.Chunk{
			{Text: "emergency services bypass the deductible", Page: &p3, SourceDocument: "Policy_2024.pdf"},
			{Text: "preventive care is covered in full", Page: &p7, SourceDocument: "Summary_Benefits.pdf"},
			{Text: "out-of-network care has higher coinsurance", Page: &p9, SourceDocument: "Policy_2024.pdf"},
		},
		[][]float32{{1, 0}, {0, 1}, {0.7, 0.7}},
	)
	require.NoError(t, err)
	return s
}

func TestRetrieveUnscoped(t *testing.T) {
	r := NewRetriever(testStore(t), &stubEmbedder{vec: []float32{1, 0}}, nil)
	got, err := r.Retrieve(context.Background(), "deductible?", 2, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "emergency services bypass the deductible", got[0].Text)
	require.Equal(t, 1.0, got[0].Score)
	require.Equal(t, 3, *got[0].Page)
	require.Equal(t, "out-of-network care has higher coinsurance", got[1].Text)
	require.InDelta(t, 0.7, got[1].Score, 1e-6)
}

func TestRetrieveScopedKeepsGlobalIdentity(t *testing.T) {
	r := NewRetriever(testStore(t), &stubEmbedder{vec: []float32{0, 1}}, nil)
	got, err := r.Retrieve(context.Background(), "coinsurance?", 5, "policy")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, rc := range got {
		require.Contains(t, strings.ToLower(rc.SourceDocument), "policy")
	}
	// The subset winner is the global chunk 2, with its own page number.
	require.Equal(t, "out-of-network care has higher coinsurance", got[0].Text)
	require.Equal(t, 9, *got[0].Page)
}

func TestRetrieveScopeFallback(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	r := NewRetriever(testStore(t), emb, nil)

	scoped, err := r.Retrieve(context.Background(), "deductible?", 5, "xyz123")
	require.NoError(t, err)
	unscoped, err := r.Retrieve(context.Background(), "deductible?", 5, "")
	require.NoError(t, err)
	require.Equal(t, unscoped, scoped)
}

func TestRetrieveScopeMatchIsCaseInsensitive(t *testing.T) {
	r := NewRetriever(testStore(t), &stubEmbedder{vec: []float32{0, 1}}, nil)
	got, err := r.Retrieve(context.Background(), "preventive?", 5, "SUMMARY_benefits")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Summary_Benefits.pdf", got[0].SourceDocument)
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	empty, err := corpus.NewStore(nil, nil)
	require.NoError(t, err)
	emb := &stubEmbedder{vec: []float32{1, 0}}
	r := NewRetriever(empty, emb, nil)

	_, err = r.Retrieve(context.Background(), "anything", 3, "")
	require.ErrorIs(t, err, util.ErrEmptyCorpus)
	require.Zero(t, emb.calls, "embedder must not be called for an empty corpus")
}

func TestRetrieveEmbedFailurePropagates(t *testing.T) {
	wrapped := errors.New("service unavailable")
	r := NewRetriever(testStore(t), &stubEmbedder{err: wrapped}, nil)
	_, err := r.Retrieve(context.Background(), "q", 3, "")
	require.ErrorIs(t, err, wrapped)
}

func TestRetrieveNormalizesQueryVector(t *testing.T) {
	// A backend returning a raw (non-unit) vector must not inflate scores
	// past the cosine range.
	r := NewRetriever(testStore(t), &stubEmbedder{vec: []float32{2, 0}}, nil)
	got, err := r.Retrieve(context.Background(), "deductible?", 1, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1.0, got[0].Score)
}

func TestRetrieveDimensionMismatch(t *testing.T) {
	r := NewRetriever(testStore(t), &stubEmbedder{vec: []float32{1, 0, 0}}, nil)
	_, err := r.Retrieve(context.Background(), "q", 3, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimension")
}

func TestScopeIndices(t *testing.T) {
	s := testStore(t)
	require.Equal(t, []int{0, 2}, ScopeIndices(s, "policy_2024"))
	require.Equal(t, []int{1}, ScopeIndices(s, "summary"))
	require.Empty(t, ScopeIndices(s, "xyz123"))
	require.Empty(t, ScopeIndices(s, "  "))
}
