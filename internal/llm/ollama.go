package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaGenerator runs prompts against a local Ollama server
type OllamaGenerator struct {
	client      *resty.Client
	model       string
	temperature float64
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Error    string `json:"error"`
}

// NewOllamaGenerator creates a generator for model served at baseURL
func NewOllamaGenerator(baseURL, model string, temperature float64) *OllamaGenerator {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(5 * time.Minute)

	return &OllamaGenerator{client: c, model: model, temperature: temperature}
}

// Name returns the backend name
func (g *OllamaGenerator) Name() string {
	return "ollama:" + g.model
}

// Generate returns the completion for prompt
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var out ollamaGenerateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(&ollamaGenerateRequest{
			Model:  g.model,
			Prompt: prompt,
			Options: ollamaOptions{
				NumPredict:  maxTokens,
				Temperature: g.temperature,
			},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode(), out.Error)
		}
		return "", fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Response, nil
}

// HealthPing checks that the configured model is available
func (g *OllamaGenerator) HealthPing(ctx context.Context) error {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := g.client.R().SetContext(ctx).SetResult(&data).Get("/api/tags")
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}

	want := baseModelName(g.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

func baseModelName(name string) string {
	return strings.Split(name, ":")[0]
}
