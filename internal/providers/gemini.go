package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const geminiDefaultModel = "gemini-2.5-flash"

// GeminiProvider answers through the Google Generative Language API. It is
// the default generation backend: the corpus prompts were tuned against
// Gemini's grounded-answer behavior.
type GeminiProvider struct {
	keyAlias string
	apiKey   string
	model    string
	client   *http.Client
}

func NewGeminiProvider(keyAlias string) *GeminiProvider {
	model := strings.TrimSpace(os.Getenv("POLICYRAG_GEMINI_MODEL"))
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{
		keyAlias: keyAlias,
		apiKey:   resolveKey("POLICYRAG_GEMINI_KEY_", keyAlias, "GEMINI_API_KEY"),
		model:    model,
		client:   &http.Client{Timeout: 90 * time.Second},
	}
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyAlias}
	if g.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("gemini key missing for alias %q", g.keyAlias)
	}
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", g.model)
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": req.Prompt}}},
		},
	}
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	headers := map[string]string{"x-goog-api-key": g.apiKey}
	if err := postJSON(ctx, g.client, url, headers, payload, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("gemini generate: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return GenerateResponse{Text: b.String()}, info, nil
}
