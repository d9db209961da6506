package llm

import (
	"fmt"

	"email-agent-go/internal/config"
)

// NewGenerator builds the configured backend. It returns nil when the
// generative backend is disabled.
func NewGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.Temperature), nil
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
