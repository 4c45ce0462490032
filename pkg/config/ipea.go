package config

import "fmt"

// IpeaConfig configures the ipeadata OData API client.
type IpeaConfig struct {
	// BaseURL of the OData service.
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout in seconds per request.
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries for transient fetch failures.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// MetadataPageSize bounds catalog metadata pages.
	MetadataPageSize int `yaml:"metadata_page_size,omitempty"`
}

func (c *IpeaConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://www.ipeadata.gov.br/api/odata4"
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MetadataPageSize == 0 {
		c.MetadataPageSize = 5000
	}
}

func (c *IpeaConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}
