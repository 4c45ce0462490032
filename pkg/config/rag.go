package config

import "fmt"

// RAGConfig tunes the two-stage retrieval engine.
type RAGConfig struct {
	// TopK is the default number of distinct series returned by Stage-1.
	TopK int `yaml:"top_k,omitempty"`

	// Oversample multiplies TopK for the raw point-level KNN fetch, so
	// that dedup by series still yields TopK distinct series.
	Oversample int `yaml:"oversample,omitempty"`

	// ContextBudget is the character budget of the assembled context.
	ContextBudget int `yaml:"context_budget,omitempty"`

	// AttachmentBudget bounds the attachment section within the context.
	AttachmentBudget int `yaml:"attachment_budget,omitempty"`
}

func (c *RAGConfig) SetDefaults() {
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.Oversample == 0 {
		c.Oversample = 10
	}
	if c.ContextBudget == 0 {
		c.ContextBudget = 3000
	}
	if c.AttachmentBudget == 0 {
		c.AttachmentBudget = 1500
	}
}

func (c *RAGConfig) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1")
	}
	if c.Oversample < 1 {
		return fmt.Errorf("oversample must be at least 1")
	}
	if c.ContextBudget < 100 {
		return fmt.Errorf("context_budget must be at least 100 characters")
	}
	return nil
}
