package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.TopKGlobal != 3 {
		t.Fatalf("TopKGlobal = %d, want 3", cfg.TopKGlobal)
	}
	if cfg.TopKScoped != 5 {
		t.Fatalf("TopKScoped = %d, want 5", cfg.TopKScoped)
	}
	if cfg.APIAddr == "" || cfg.ChunksFile == "" || cfg.EmbeddingsFile == "" {
		t.Fatalf("expected non-empty defaults: %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("POLICYRAG_TOPK_GLOBAL", "7")
	t.Setenv("POLICYRAG_API_ADDR", ":9090")
	cfg := Load()
	if cfg.TopKGlobal != 7 {
		t.Fatalf("TopKGlobal = %d, want 7", cfg.TopKGlobal)
	}
	if cfg.APIAddr != ":9090" {
		t.Fatalf("APIAddr = %s, want :9090", cfg.APIAddr)
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("POLICYRAG_EMBED_DIM", "not-a-number")
	if cfg := Load(); cfg.EmbedDim != 1024 {
		t.Fatalf("EmbedDim = %d, want fallback 1024", cfg.EmbedDim)
	}
}
