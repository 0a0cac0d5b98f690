package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"policyrag/internal/config"
	"policyrag/internal/corpus"
	"policyrag/internal/models"
	"policyrag/internal/providers"
	"policyrag/internal/retrieval"
	"policyrag/internal/util"
)

type stubEmbedder struct {
	vec []float32
}

func (s *stubEmbedder) Embed(_ context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	out := make([][]float32, len(req.Inputs))
	for i := range req.Inputs {
		out[i] = s.vec
	}
	return out, providers.ProviderInfo{Name: "stub"}, nil
}

type stubGenerator struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return providers.GenerateResponse{}, providers.ProviderInfo{Name: "stub"}, s.err
	}
	return providers.GenerateResponse{Text: s.text}, providers.ProviderInfo{Name: "stub"}, nil
}

func testPipeline(t *testing.T, gen *stubGenerator) *Pipeline {
	t.Helper()
	store, err := corpus.NewStore(
		[]models.Chunk{
			{Text: "emergency services bypass the deductible", SourceDocument: "Policy_2024.pdf"},
			{Text: "preventive care is covered in full", SourceDocument: "Summary_Benefits.pdf"},
			{Text: "out-of-network care has higher coinsurance", SourceDocument: "Policy_2024.pdf"},
		},
		[][]float32{{1, 0}, {0, 1}, {0.7, 0.7}},
	)
	require.NoError(t, err)
	r := retrieval.NewRetriever(store, &stubEmbedder{vec: []float32{1, 0}}, nil)
	return NewPipeline(r, gen, config.Config{TopKGlobal: 3, TopKScoped: 5}, nil)
}

func TestAnswerTrimsAndReturnsRetrieved(t *testing.T) {
	gen := &stubGenerator{text: "  Yes, per [Chunk 1].\n"}
	p := testPipeline(t, gen)

	ans, err := p.Answer(context.Background(), "Do emergency services bypass the deductible?", 2)
	require.NoError(t, err)
	require.Equal(t, "Yes, per [Chunk 1].", ans.Answer)
	require.Len(t, ans.Retrieved, 2)
	require.Equal(t, "emergency services bypass the deductible", ans.Retrieved[0].Text)

	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "Do emergency services bypass the deductible?")
	require.Contains(t, gen.prompts[0], "[Chunk 1] emergency services bypass the deductible")
}

func TestAnswerDefaultTopK(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	p := testPipeline(t, gen)

	ans, err := p.Answer(context.Background(), "q", 0)
	require.NoError(t, err)
	require.Len(t, ans.Retrieved, 3)
}

func TestAnswerForDocumentScopedAndFallback(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	p := testPipeline(t, gen)

	scoped, err := p.AnswerForDocument(context.Background(), "q", "summary_benefits", 0)
	require.NoError(t, err)
	require.Len(t, scoped.Retrieved, 1)
	require.Equal(t, "Summary_Benefits.pdf", scoped.Retrieved[0].SourceDocument)

	// A scope matching nothing must return exactly the unscoped set.
	fallback, err := p.AnswerForDocument(context.Background(), "q", "xyz123", 5)
	require.NoError(t, err)
	global, err := p.Answer(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Equal(t, global.Retrieved, fallback.Retrieved)
}

func TestAnswerGenerationFailurePropagates(t *testing.T) {
	genErr := errors.New("503 service unavailable")
	gen := &stubGenerator{err: genErr}
	p := testPipeline(t, gen)

	_, err := p.Answer(context.Background(), "q", 2)
	require.ErrorIs(t, err, genErr)
	require.True(t, strings.HasPrefix(err.Error(), "generate:"), "stage tag expected: %v", err)
}

func TestEmptyCorpusSkipsGenerator(t *testing.T) {
	store, err := corpus.NewStore(nil, nil)
	require.NoError(t, err)
	gen := &stubGenerator{text: "never"}
	r := retrieval.NewRetriever(store, &stubEmbedder{vec: []float32{1, 0}}, nil)
	p := NewPipeline(r, gen, config.Config{}, nil)

	_, err = p.Answer(context.Background(), "q", 3)
	require.ErrorIs(t, err, util.ErrEmptyCorpus)
	require.Zero(t, gen.calls, "generator must not run when retrieval fails")
}
