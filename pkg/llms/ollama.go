package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/ollama"
)

// OllamaProvider generates text through a local Ollama instance.
type OllamaProvider struct {
	config *config.LLMConfig
	client *ollama.Client
}

type ollamaGenerateRequest struct {
	Model   string             `json:"model"`
	Prompt  string             `json:"prompt"`
	Stream  bool               `json:"stream"`
	Options ollamaModelOptions `json:"options,omitempty"`
}

type ollamaModelOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaGenerateResponse tolerates the field-name drift seen across
// Ollama releases: the completion arrives as "response", but older
// builds used "text" or "content".
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
	Content  string `json:"content"`
	Error    string `json:"error"`
}

func NewOllamaProvider(cfg *config.LLMConfig) (*OllamaProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &OllamaProvider{
		config: cfg,
		client: ollama.NewClient(cfg.Host, time.Duration(cfg.Timeout)*time.Second),
	}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  p.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaModelOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.MaxTokens,
		},
	}

	resp, err := p.client.Post(ctx, "/api/generate", reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama generation failed: %s", parsed.Error)
	}

	text := parsed.Response
	if text == "" {
		text = parsed.Text
	}
	if text == "" {
		text = parsed.Content
	}
	if text == "" {
		return "", fmt.Errorf("ollama returned an empty completion")
	}

	return text, nil
}

func (p *OllamaProvider) GetModelName() string {
	return p.config.Model
}

func (p *OllamaProvider) Close() error {
	return nil
}
