package ipea

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// MetadataCache is the process-wide series metadata cache. It is loaded
// once at startup and read-only on the query path; Rebuild is an
// administrative operation guarded by a single writer.
type MetadataCache struct {
	client *Client

	mu      sync.RWMutex
	entries map[string]Metadata

	// rebuildMu serializes Load/Rebuild so concurrent admin calls
	// cannot interleave catalog fetches.
	rebuildMu sync.Mutex
}

func NewMetadataCache(client *Client) *MetadataCache {
	return &MetadataCache{
		client:  client,
		entries: make(map[string]Metadata),
	}
}

// Load fills the cache from the catalog. Called once at startup.
func (c *MetadataCache) Load(ctx context.Context) error {
	return c.Rebuild(ctx)
}

// Rebuild refetches the whole catalog and atomically replaces the cache.
func (c *MetadataCache) Rebuild(ctx context.Context) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	catalog, err := c.client.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild metadata cache: %w", err)
	}

	entries := make(map[string]Metadata, len(catalog))
	for _, meta := range catalog {
		entries[meta.Code] = meta
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	slog.Info("metadata cache loaded", "series", len(entries))
	return nil
}

// Get returns metadata for a code.
func (c *MetadataCache) Get(code string) (Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, ok := c.entries[code]
	return meta, ok
}

// DisplayName returns the series name, falling back to the raw code
// when the catalog has no entry.
func (c *MetadataCache) DisplayName(code string) string {
	if meta, ok := c.Get(code); ok && meta.Name != "" {
		return meta.Name
	}
	return code
}

// Len returns the number of cached entries.
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear empties the cache. Administrative path only.
func (c *MetadataCache) Clear() {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	c.mu.Lock()
	c.entries = make(map[string]Metadata)
	c.mu.Unlock()
}
