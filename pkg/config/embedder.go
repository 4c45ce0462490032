package config

import "fmt"

// EmbedderConfig configures the embedding provider.
//
// Example YAML:
//
//	embedder:
//	  type: ollama
//	  model: nomic-embed-text
//	  host: http://localhost:11434
//	  dimension: 768
type EmbedderConfig struct {
	// Type is the embedder type: "ollama" or "openai".
	Type string `yaml:"type"`

	// Model is the embedding model name.
	Model string `yaml:"model,omitempty"`

	// Host is the API base URL.
	Host string `yaml:"host,omitempty"`

	// APIKey for authenticated providers. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// Dimension is the target vector dimension. Raw model output is
	// truncated or zero-padded to this length, identically at index and
	// query time.
	Dimension int `yaml:"dimension,omitempty"`

	// Timeout in seconds for embedding requests.
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries for transient embedding request failures.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

func (c *EmbedderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		switch c.Type {
		case "ollama":
			c.Model = "nomic-embed-text"
		case "openai":
			c.Model = "text-embedding-3-small"
		}
	}
	if c.Dimension == 0 {
		switch c.Type {
		case "ollama":
			c.Dimension = 768
		case "openai":
			c.Dimension = 1536
		}
	}
	if c.Host == "" && c.Type == "ollama" {
		c.Host = "http://localhost:11434"
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *EmbedderConfig) Validate() error {
	switch c.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported embedder type: %s", c.Type)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("embedder dimension must be positive, got %d", c.Dimension)
	}
	if c.Type == "openai" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for openai embedder")
	}
	return nil
}
