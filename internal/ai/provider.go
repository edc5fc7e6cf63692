// Package ai talks to the generative model used for open-ended questions.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/smbops/invoice-copilot/internal/models"
)

// ErrUnavailable wraps every failure to obtain text from a model backend.
var ErrUnavailable = errors.New("model unavailable")

// Provider produces a completion for a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates the backend called name, falling back to cfg.DefaultProvider.
func NewProvider(cfg models.AIConfig, name string) (Provider, error) {
	if name == "" {
		name = cfg.DefaultProvider
	}
	switch name {
	case "ollama":
		return NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model, nil), nil

	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model), nil

	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		return NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", name)
	}
}

func unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, provider, err)
}
