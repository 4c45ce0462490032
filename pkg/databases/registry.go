// Package databases provides vector index providers for the series
// document index.
//
// Score convention: every provider reports cosine distance (1 minus
// cosine similarity), so lower scores are always more similar. Backends
// that natively report similarity are converted before results leave
// the provider.
package databases

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/registry"
)

// ErrIndexNotReady reports that the backing store is still initializing.
var ErrIndexNotReady = errors.New("vector index not ready")

type DatabaseProvider interface {
	// EnsureCollection creates the collection if it does not exist.
	// Idempotent: "already exists" is success, including when raced by
	// concurrent process starts.
	EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error

	// Upsert writes one document, overwriting any existing document
	// with the same id.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error

	// Search returns up to topK documents by ascending cosine distance.
	// Stored vectors are not included in results.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)

	// DistinctValues returns the distinct values of a metadata field
	// across the collection.
	DistinctValues(ctx context.Context, collection string, field string) ([]string, error)

	Delete(ctx context.Context, collection string, id string) error

	DeleteCollection(ctx context.Context, collection string) error

	Close() error
}

// SearchResult is one KNN hit. Score is cosine distance, lower is better.
type SearchResult struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

type DatabaseRegistry struct {
	*registry.BaseRegistry[DatabaseProvider]
}

func NewDatabaseRegistry() *DatabaseRegistry {
	return &DatabaseRegistry{
		BaseRegistry: registry.NewBaseRegistry[DatabaseProvider](),
	}
}

func (r *DatabaseRegistry) RegisterDatabase(name string, provider DatabaseProvider) error {
	if name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("database provider cannot be nil")
	}
	return r.Register(name, provider)
}

// CreateDatabaseFromConfig builds and registers a vector store provider.
func (r *DatabaseRegistry) CreateDatabaseFromConfig(name string, cfg *config.VectorStoreConfig) (DatabaseProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}

	var provider DatabaseProvider
	var err error

	switch cfg.Type {
	case "qdrant":
		provider, err = NewQdrantDatabaseProviderFromConfig(cfg)
	case "chromem":
		provider, err = NewChromemDatabaseProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create database provider: %w", err)
	}

	if err := r.RegisterDatabase(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register database: %w", err)
	}

	return provider, nil
}

func (r *DatabaseRegistry) GetDatabase(name string) (DatabaseProvider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("database provider '%s' not found", name)
	}
	return provider, nil
}
