package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for serieshub.
type Config struct {
	Server      ServerConfig         `yaml:"server"`
	Embedder    EmbedderConfig       `yaml:"embedder"`
	VectorStore VectorStoreConfig    `yaml:"vector_store"`
	LLMs        map[string]LLMConfig `yaml:"llms"`
	Generation  GenerationConfig     `yaml:"generation"`
	Ipea        IpeaConfig           `yaml:"ipea"`
	RAG         RAGConfig            `yaml:"rag"`
}

// Load reads, expands, defaults, and validates a YAML config file.
// An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	LoadDotEnv()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		expanded := ExpandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Embedder.SetDefaults()
	c.VectorStore.SetDefaults()
	c.Generation.SetDefaults()
	c.Ipea.SetDefaults()
	c.RAG.SetDefaults()

	if c.LLMs == nil {
		c.LLMs = make(map[string]LLMConfig)
	}
	// Backends the environment can satisfy are configured implicitly,
	// mirroring the zero-config behavior of the CLI.
	if len(c.LLMs) == 0 {
		if url := os.Getenv("OLLAMA_URL"); url != "" {
			c.LLMs["ollama"] = LLMConfig{Type: "ollama", Host: url}
		}
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLMs["openai"] = LLMConfig{Type: "openai", APIKey: key}
		}
	}
	for name, llm := range c.LLMs {
		if llm.Type == "" {
			llm.Type = name
		}
		llm.SetDefaults()
		c.LLMs[name] = llm
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vector_store: %w", err)
	}
	if err := c.Ipea.Validate(); err != nil {
		return fmt.Errorf("ipea: %w", err)
	}
	if err := c.RAG.Validate(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llms.%s: %w", name, err)
		}
	}
	return nil
}
