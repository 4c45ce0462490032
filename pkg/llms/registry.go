// Package llms provides generation backends and the gateway that
// routes prompts to them with a fallback policy.
package llms

import (
	"context"
	"fmt"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/registry"
)

// LLMProvider is the single interface all generation backends implement.
type LLMProvider interface {
	// Generate performs a non-streaming completion for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	GetModelName() string

	Close() error
}

type LLMRegistry struct {
	*registry.BaseRegistry[LLMProvider]
}

func NewLLMRegistry() *LLMRegistry {
	return &LLMRegistry{
		BaseRegistry: registry.NewBaseRegistry[LLMProvider](),
	}
}

func (r *LLMRegistry) RegisterLLM(name string, provider LLMProvider) error {
	if name == "" {
		return fmt.Errorf("LLM name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("LLM provider cannot be nil")
	}
	return r.Register(name, provider)
}

func (r *LLMRegistry) CreateLLMFromConfig(name string, cfg *config.LLMConfig) (LLMProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("LLM name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("LLM config cannot be nil")
	}

	var provider LLMProvider
	var err error

	switch cfg.Type {
	case "ollama":
		provider, err = NewOllamaProvider(cfg)
	case "openai":
		provider, err = NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider %s: %w", name, err)
	}

	if err := r.RegisterLLM(name, provider); err != nil {
		return nil, err
	}

	return provider, nil
}

func (r *LLMRegistry) GetLLM(name string) (LLMProvider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("LLM provider not found: %s", name)
	}
	return provider, nil
}
