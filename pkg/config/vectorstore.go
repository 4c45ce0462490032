package config

import "fmt"

// VectorStoreConfig configures the vector index backend.
//
// Example YAML:
//
//	vector_store:
//	  type: qdrant
//	  host: localhost
//	  port: 6334
//	  collection: ipea_series
type VectorStoreConfig struct {
	// Type is the vector store type: "qdrant" or "chromem".
	Type string `yaml:"type"`

	// Host for qdrant.
	Host string `yaml:"host,omitempty"`

	// Port for qdrant (gRPC port).
	Port int `yaml:"port,omitempty"`

	// APIKey for authenticated access.
	APIKey string `yaml:"api_key,omitempty"`

	// EnableTLS enables TLS connections.
	EnableTLS *bool `yaml:"enable_tls,omitempty"`

	// PersistPath for chromem file persistence. Empty means in-memory.
	PersistPath string `yaml:"persist_path,omitempty"`

	// Compress enables gzip compression for chromem persistence.
	Compress bool `yaml:"compress,omitempty"`

	// Collection is the index name documents are written to.
	Collection string `yaml:"collection,omitempty"`

	// ReadyAttempts bounds the startup readiness probe.
	ReadyAttempts int `yaml:"ready_attempts,omitempty"`

	// ReadyIntervalSeconds is the delay between readiness probes.
	ReadyIntervalSeconds int `yaml:"ready_interval_seconds,omitempty"`
}

// BoolPtr returns a pointer to the given bool, for optional config fields.
func BoolPtr(b bool) *bool {
	return &b
}

func (c *VectorStoreConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem"
	}
	if c.Type == "qdrant" {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 {
			c.Port = 6334
		}
	}
	if c.Collection == "" {
		c.Collection = "ipea_series"
	}
	if c.ReadyAttempts == 0 {
		c.ReadyAttempts = 10
	}
	if c.ReadyIntervalSeconds == 0 {
		c.ReadyIntervalSeconds = 3
	}
}

func (c *VectorStoreConfig) Validate() error {
	switch c.Type {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("unsupported vector store type: %s", c.Type)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	return nil
}
