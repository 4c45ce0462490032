package config

import "fmt"

// ServerConfig configures the HTTP query surface.
type ServerConfig struct {
	// Address is the listen address (host:port).
	Address string `yaml:"address,omitempty"`

	// EnableCORS allows cross-origin requests (browser front-ends).
	EnableCORS bool `yaml:"enable_cors,omitempty"`

	// MaxAttachmentBytes bounds decoded attachment size.
	MaxAttachmentBytes int64 `yaml:"max_attachment_bytes,omitempty"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8997"
	}
	if c.MaxAttachmentBytes == 0 {
		c.MaxAttachmentBytes = 10 << 20
	}
}

func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}
