package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	openaiEmbedURL    = "https://api.openai.com/v1/embeddings"
	openaiChatURL     = "https://api.openai.com/v1/chat/completions"
	openaiEmbedModel  = "text-embedding-3-small"
	openaiChatModel   = "gpt-4o-mini"
	openaiHTTPTimeout = 60 * time.Second
)

// OpenAIProvider talks to the standard OpenAI REST APIs and serves both
// embeddings and generation.
type OpenAIProvider struct {
	keyAlias string
	apiKey   string
	client   *http.Client
}

func NewOpenAIProvider(keyAlias string) *OpenAIProvider {
	return &OpenAIProvider{
		keyAlias: keyAlias,
		apiKey:   resolveKey("POLICYRAG_OPENAI_KEY_", keyAlias, "OPENAI_API_KEY"),
		client:   &http.Client{Timeout: openaiHTTPTimeout},
	}
}

func (o *OpenAIProvider) info(model string) ProviderInfo {
	return ProviderInfo{Name: "openai", Model: model, Key: o.keyAlias}
}

func (o *OpenAIProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := o.info(openaiEmbedModel)
	if o.apiKey == "" {
		return nil, info, fmt.Errorf("openai key missing for alias %q", o.keyAlias)
	}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	payload := map[string]any{"model": openaiEmbedModel, "input": req.Inputs}
	if req.Dimension > 0 {
		payload["dimensions"] = req.Dimension
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.client, openaiEmbedURL, headers, payload, &parsed); err != nil {
		return nil, info, fmt.Errorf("openai embedding: %w", err)
	}
	if len(parsed.Data) != len(req.Inputs) {
		return nil, info, fmt.Errorf("openai returned %d embeddings for %d inputs", len(parsed.Data), len(req.Inputs))
	}
	out := make([][]float32, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		out = append(out, d.Embedding)
	}
	return out, info, nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := o.info(openaiChatModel)
	if o.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("openai key missing for alias %q", o.keyAlias)
	}
	payload := map[string]any{
		"model": openaiChatModel,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.client, openaiChatURL, headers, payload, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("openai generate: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("openai returned empty choices")
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, info, nil
}

// resolveKey looks up an alias-specific key first, then the conventional
// provider variable.
func resolveKey(aliasPrefix, alias, fallbackEnv string) string {
	if alias != "" {
		if k := strings.TrimSpace(os.Getenv(aliasPrefix + sanitizeEnvToken(alias))); k != "" {
			return k
		}
	}
	return strings.TrimSpace(os.Getenv(fallbackEnv))
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
