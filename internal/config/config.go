package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env            string
	APIAddr        string
	ChunksFile     string
	EmbeddingsFile string
	EmbedDim       int
	LLMProviders   string
	EmbedProviders string
	TopKGlobal     int
	TopKScoped     int
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
}

func Load() Config {
	return Config{
		Env:            getenv("POLICYRAG_ENV", "development"),
		APIAddr:        getenv("POLICYRAG_API_ADDR", ":8080"),
		ChunksFile:     getenv("POLICYRAG_CHUNKS_FILE", "./data/insurance_chunks.json"),
		EmbeddingsFile: getenv("POLICYRAG_EMBEDDINGS_FILE", "./data/insurance_embeddings.npy"),
		EmbedDim:       getenvInt("POLICYRAG_EMBED_DIM", 1024),
		LLMProviders:   getenv("POLICYRAG_LLM_PROVIDERS", "mock"),
		EmbedProviders: getenv("POLICYRAG_EMBED_PROVIDERS", "mock"),
		TopKGlobal:     getenvInt("POLICYRAG_TOPK_GLOBAL", 3),
		TopKScoped:     getenvInt("POLICYRAG_TOPK_SCOPED", 5),
		ChunkSize:      getenvInt("POLICYRAG_CHUNK_SIZE", 1200),
		ChunkOverlap:   getenvInt("POLICYRAG_CHUNK_OVERLAP", 200),
		EmbedBatchSize: getenvInt("POLICYRAG_EMBED_BATCH_SIZE", 32),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
