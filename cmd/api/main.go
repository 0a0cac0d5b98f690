package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"policyrag/internal/api"
	"policyrag/internal/config"
	"policyrag/internal/corpus"
	"policyrag/internal/observability"
	"policyrag/internal/providers"
	"policyrag/internal/rag"
	"policyrag/internal/retrieval"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	log, err := observability.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// Corpus load is the one-time initialization barrier: no query is
	// served before it completes.
	store, err := corpus.Load(cfg.ChunksFile, cfg.EmbeddingsFile)
	if err != nil {
		log.Fatal("load corpus", zap.Error(err))
	}

	pm, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatal("build providers", zap.Error(err))
	}

	retriever := retrieval.NewRetriever(store, pm.Embedder(), log)
	pipeline := rag.NewPipeline(retriever, pm.Generator(), cfg, log)
	server := api.NewServer(cfg, pipeline, store, log)

	log.Info("policyrag api listening",
		zap.String("addr", cfg.APIAddr),
		zap.Int("chunks", store.Size()),
		zap.Int("dimension", store.Dimension()),
		zap.String("embed_provider", pm.EmbedderRef().Raw),
		zap.String("llm_provider", pm.GeneratorRef().Raw))

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}
