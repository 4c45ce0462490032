package config

import (
	"fmt"
	"os"
)

// LLMConfig configures one generation backend.
//
// Example YAML:
//
//	llms:
//	  ollama:
//	    type: ollama
//	    model: llama3.2
//	    host: ${OLLAMA_URL:-http://localhost:11434}
//	  openai:
//	    type: openai
//	    model: gpt-4o-mini
//	    api_key: ${OPENAI_API_KEY}
type LLMConfig struct {
	// Type is the backend type: "ollama" or "openai".
	Type string `yaml:"type"`

	// Model name (e.g. "llama3.2", "gpt-4o-mini").
	Model string `yaml:"model,omitempty"`

	// Host is the API base URL.
	Host string `yaml:"host,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Temperature for generation.
	Temperature float64 `yaml:"temperature,omitempty"`

	// Timeout in seconds for generation requests.
	Timeout int `yaml:"timeout,omitempty"`
}

func (c *LLMConfig) SetDefaults() {
	if c.Model == "" {
		switch c.Type {
		case "ollama":
			c.Model = "llama3.2"
		case "openai":
			c.Model = "gpt-4o-mini"
		}
	}
	if c.Host == "" && c.Type == "ollama" {
		c.Host = os.Getenv("OLLAMA_URL")
		if c.Host == "" {
			c.Host = "http://localhost:11434"
		}
	}
	if c.APIKey == "" && c.Type == "openai" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
}

func (c *LLMConfig) Validate() error {
	switch c.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported LLM type: %s", c.Type)
	}
	return nil
}

// GenerationConfig selects the default backend preference.
type GenerationConfig struct {
	// Preferred is the backend name used when a request does not name one.
	Preferred string `yaml:"preferred,omitempty"`
}

func (c *GenerationConfig) SetDefaults() {
	if c.Preferred == "" {
		c.Preferred = "ollama"
	}
}
