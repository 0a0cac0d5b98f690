package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"policyrag/internal/config"
	"policyrag/internal/models"
	"policyrag/internal/providers"
	"policyrag/internal/retrieval"
)

// Pipeline composes retrieval, context assembly and generation into the two
// public entry points. It holds no per-query state, so one pipeline serves
// concurrent queries.
type Pipeline struct {
	retriever  *retrieval.Retriever
	generator  providers.LLMProvider
	topKGlobal int
	topKScoped int
	log        *zap.Logger
}

func NewPipeline(retriever *retrieval.Retriever, generator providers.LLMProvider, cfg config.Config, log *zap.Logger) *Pipeline {
	topKGlobal := cfg.TopKGlobal
	if topKGlobal < 1 {
		topKGlobal = 3
	}
	// The scoped path over-fetches by default: filtering narrows the
	// candidate pool, so each candidate carries less signal.
	topKScoped := cfg.TopKScoped
	if topKScoped < 1 {
		topKScoped = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		retriever:  retriever,
		generator:  generator,
		topKGlobal: topKGlobal,
		topKScoped: topKScoped,
		log:        log,
	}
}

// Answer runs the unscoped pipeline. topK < 1 selects the configured global
// default.
func (p *Pipeline) Answer(ctx context.Context, question string, topK int) (models.RagAnswer, error) {
	if topK < 1 {
		topK = p.topKGlobal
	}
	return p.run(ctx, question, topK, "")
}

// AnswerForDocument runs the document-scoped pipeline. topK < 1 selects the
// configured scoped default.
func (p *Pipeline) AnswerForDocument(ctx context.Context, question, document string, topK int) (models.RagAnswer, error) {
	if topK < 1 {
		topK = p.topKScoped
	}
	return p.run(ctx, question, topK, document)
}

func (p *Pipeline) run(ctx context.Context, question string, topK int, scope string) (models.RagAnswer, error) {
	retrieved, err := p.retriever.Retrieve(ctx, question, topK, scope)
	if err != nil {
		return models.RagAnswer{}, fmt.Errorf("retrieve: %w", err)
	}

	prompt := BuildPrompt(question, BuildContext(retrieved))
	resp, info, err := p.generator.Generate(ctx, providers.GenerateRequest{
		Operation: "rag_answer",
		Prompt:    prompt,
	})
	if err != nil {
		return models.RagAnswer{}, fmt.Errorf("generate: %w", err)
	}
	p.log.Debug("pipeline answered",
		zap.Int("top_k", topK),
		zap.String("scope", scope),
		zap.Int("retrieved", len(retrieved)),
		zap.String("llm_provider", info.Name),
		zap.String("llm_model", info.Model))

	return models.RagAnswer{
		Answer:    strings.TrimSpace(resp.Text),
		Retrieved: retrieved,
	}, nil
}
