package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// OllamaEmbeddingProvider supports local, free embeddings via Ollama, e.g.
// nomic-embed-text. The Ollama API embeds one prompt per call.
type OllamaEmbeddingProvider struct {
	keyAlias string
	baseURL  string
	model    string
	client   *http.Client
}

func NewOllamaEmbeddingProvider(keyAlias string) *OllamaEmbeddingProvider {
	baseURL := strings.TrimSpace(os.Getenv("POLICYRAG_OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := strings.TrimSpace(os.Getenv("POLICYRAG_OLLAMA_EMBED_MODEL"))
	if model == "" {
		if keyAlias != "" {
			// Allow the model directly in the provider list, e.g. ollama:nomic-embed-text.
			model = keyAlias
		} else {
			model = "nomic-embed-text"
		}
	}
	return &OllamaEmbeddingProvider{
		keyAlias: keyAlias,
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		client:   &http.Client{Timeout: 90 * time.Second},
	}
}

func (o *OllamaEmbeddingProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.model, Key: o.keyAlias}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	out := make([][]float32, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		payload := map[string]any{"model": o.model, "prompt": text}
		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := postJSON(ctx, o.client, o.baseURL+"/api/embeddings", nil, payload, &parsed); err != nil {
			return nil, info, fmt.Errorf("ollama embedding: %w", err)
		}
		if len(parsed.Embedding) == 0 {
			return nil, info, fmt.Errorf("ollama returned empty embedding")
		}
		out = append(out, parsed.Embedding)
	}
	return out, info, nil
}
