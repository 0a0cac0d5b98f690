package providers

import (
	"fmt"
	"strings"

	"policyrag/internal/config"
)

// Manager builds the configured embedding and generation providers. The
// pipeline uses exactly one of each; the first entry of each list wins.
type Manager struct {
	embedder  EmbeddingProvider
	embedRef  ProviderRef
	generator LLMProvider
	genRef    ProviderRef
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}

	embedRefs := ParseProviderList(cfg.EmbedProviders)
	p, err := buildProvider(embedRefs[0], cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	embedder, ok := p.(EmbeddingProvider)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support embeddings", embedRefs[0].Raw)
	}
	m.embedder, m.embedRef = embedder, embedRefs[0]

	llmRefs := ParseProviderList(cfg.LLMProviders)
	p, err = buildProvider(llmRefs[0], cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	generator, ok := p.(LLMProvider)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support generation", llmRefs[0].Raw)
	}
	m.generator, m.genRef = generator, llmRefs[0]

	return m, nil
}

func (m *Manager) Embedder() EmbeddingProvider {
	return m.embedder
}

func (m *Manager) EmbedderRef() ProviderRef {
	return m.embedRef
}

func (m *Manager) Generator() LLMProvider {
	return m.generator
}

func (m *Manager) GeneratorRef() ProviderRef {
	return m.genRef
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
