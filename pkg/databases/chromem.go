package databases

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ipeadata-rag/serieshub/pkg/config"
)

// chromemDatabaseProvider is the embedded, zero-config vector store.
// Vectors live in memory with optional gob persistence. Single process
// only; for shared deployments use qdrant.
type chromemDatabaseProvider struct {
	db          *chromem.DB
	persistPath string
	compress    bool

	mu          sync.RWMutex
	collections map[string]*chromem.Collection

	// fieldValues tracks metadata field values per collection for
	// DistinctValues; chromem has no enumeration API. Not recovered
	// across restarts of a persistent store.
	fieldValues map[string]map[string]map[string]bool

	embeddingFunc chromem.EmbeddingFunc
}

func NewChromemDatabaseProviderFromConfig(cfg *config.VectorStoreConfig) (DatabaseProvider, error) {
	var db *chromem.DB
	var err error

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create persist directory: %w", err)
		}

		dbPath := filepath.Join(cfg.PersistPath, "vectors.gob")
		if cfg.Compress {
			dbPath += ".gz"
		}

		db, err = chromem.NewPersistentDB(dbPath, cfg.Compress)
		if err != nil {
			slog.Warn("failed to load existing vector database, creating new",
				"path", dbPath,
				"error", err)
			db = chromem.NewDB()
		} else {
			slog.Info("loaded vector database", "path", dbPath)
		}
	} else {
		db = chromem.NewDB()
		slog.Info("created in-memory vector database (no persistence)")
	}

	// Vectors are pre-computed by the embedder; this must never run.
	identityEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding function called but vectors should be pre-computed")
	}

	return &chromemDatabaseProvider{
		db:            db,
		persistPath:   cfg.PersistPath,
		compress:      cfg.Compress,
		collections:   make(map[string]*chromem.Collection),
		fieldValues:   make(map[string]map[string]map[string]bool),
		embeddingFunc: identityEmbed,
	}, nil
}

func (p *chromemDatabaseProvider) getCollection(name string) (*chromem.Collection, error) {
	p.mu.RLock()
	if col, ok := p.collections[name]; ok {
		p.mu.RUnlock()
		return col, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if col, ok := p.collections[name]; ok {
		return col, nil
	}

	col, err := p.db.GetOrCreateCollection(name, nil, p.embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection %q: %w", name, err)
	}

	p.collections[name] = col
	return col, nil
}

func (p *chromemDatabaseProvider) EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error {
	_, err := p.getCollection(collection)
	return err
}

func (p *chromemDatabaseProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error {
	col, err := p.getCollection(collection)
	if err != nil {
		return err
	}

	strMetadata := make(map[string]string, len(metadata))
	for k, v := range metadata {
		strMetadata[k] = fmt.Sprint(v)
	}

	content := ""
	if c, ok := metadata["text"].(string); ok {
		content = c
	}

	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Metadata:  strMetadata,
		Embedding: vector,
	}

	if err := col.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	p.trackFields(collection, strMetadata)

	return nil
}

func (p *chromemDatabaseProvider) trackFields(collection string, metadata map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byField, ok := p.fieldValues[collection]
	if !ok {
		byField = make(map[string]map[string]bool)
		p.fieldValues[collection] = byField
	}
	for field, value := range metadata {
		if value == "" {
			continue
		}
		values, ok := byField[field]
		if !ok {
			values = make(map[string]bool)
			byField[field] = values
		}
		values[value] = true
	}
}

func (p *chromemDatabaseProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	col, err := p.getCollection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects a topK above the stored document count.
	if count := col.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}

		out = append(out, SearchResult{
			ID:      r.ID,
			Content: r.Content,
			// chromem reports cosine similarity; convert to distance.
			Score:    1 - r.Similarity,
			Metadata: metadata,
		})
	}

	return out, nil
}

func (p *chromemDatabaseProvider) DistinctValues(ctx context.Context, collection string, field string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	byField, ok := p.fieldValues[collection]
	if !ok {
		return nil, nil
	}
	values := make([]string, 0, len(byField[field]))
	for v := range byField[field] {
		values = append(values, v)
	}
	return values, nil
}

func (p *chromemDatabaseProvider) Delete(ctx context.Context, collection string, id string) error {
	col, err := p.getCollection(collection)
	if err != nil {
		return err
	}

	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

func (p *chromemDatabaseProvider) DeleteCollection(ctx context.Context, collection string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	delete(p.collections, collection)
	delete(p.fieldValues, collection)
	return nil
}

func (p *chromemDatabaseProvider) Close() error {
	return nil
}
