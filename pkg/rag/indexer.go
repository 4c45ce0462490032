package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ipeadata-rag/serieshub/pkg/databases"
	"github.com/ipeadata-rag/serieshub/pkg/embedders"
	"github.com/ipeadata-rag/serieshub/pkg/ipea"
)

// Indexer writes series observations into the vector index, one
// document per point.
type Indexer struct {
	embedder   embedders.EmbedderProvider
	store      databases.DatabaseProvider
	collection string
}

func NewIndexer(embedder embedders.EmbedderProvider, store databases.DatabaseProvider, collection string) *Indexer {
	return &Indexer{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// IndexSeries indexes every point of one series and returns the count
// written. Empty series are skipped without error. An embedding failure
// aborts the whole series; no partial commit is promised or rolled back.
func (ix *Indexer) IndexSeries(ctx context.Context, sercodigo string, points []ipea.Point, meta *ipea.Metadata) (int, error) {
	if len(points) == 0 {
		slog.Debug("skipping empty series", "sercodigo", sercodigo)
		return 0, nil
	}

	for i, point := range points {
		doc := NewPointDocument(sercodigo, i, point, meta)

		vector, err := ix.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
		}

		if err := ix.store.Upsert(ctx, ix.collection, doc.ID, vector, doc.metadata()); err != nil {
			return 0, fmt.Errorf("failed to store document %s: %w", doc.ID, err)
		}
	}

	slog.Info("series indexed", "sercodigo", sercodigo, "points", len(points))
	return len(points), nil
}

// IndexedSeries lists the distinct series codes present in the index.
func (ix *Indexer) IndexedSeries(ctx context.Context) ([]string, error) {
	codes, err := ix.store.DistinctValues(ctx, ix.collection, "sercodigo")
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed series: %w", err)
	}
	return codes, nil
}
