package rag

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ipeadata-rag/serieshub/pkg/databases"
	"github.com/ipeadata-rag/serieshub/pkg/embedders"
)

// SeriesCandidate is one shortlisted series. Score is cosine distance,
// lower is more similar.
type SeriesCandidate struct {
	SerCodigo string  `json:"sercodigo"`
	Name      string  `json:"name,omitempty"`
	Score     float32 `json:"score"`
}

// Locator shortlists distinct series for a question. Point-level KNN
// returns many hits from the same series, so the raw fetch is
// oversampled and deduplicated by best score per series.
type Locator struct {
	embedder   embedders.EmbedderProvider
	store      databases.DatabaseProvider
	collection string
	oversample int
}

func NewLocator(embedder embedders.EmbedderProvider, store databases.DatabaseProvider, collection string, oversample int) *Locator {
	if oversample < 1 {
		oversample = 10
	}
	return &Locator{
		embedder:   embedder,
		store:      store,
		collection: collection,
		oversample: oversample,
	}
}

// LocateSeries returns up to k distinct series sorted ascending by
// score. Best-effort: a store or embedding failure degrades to an
// empty list, since the shortlist is advisory.
func (l *Locator) LocateSeries(ctx context.Context, question string, k int) []SeriesCandidate {
	if k < 1 {
		return nil
	}

	vector, err := l.embedder.Embed(ctx, question)
	if err != nil {
		slog.Warn("series locate skipped, embedding failed", "error", err)
		return []SeriesCandidate{}
	}

	hits, err := l.store.Search(ctx, l.collection, vector, k*l.oversample)
	if err != nil {
		slog.Warn("series locate skipped, search failed", "error", err)
		return []SeriesCandidate{}
	}

	return dedupeBySeries(hits, k)
}

// dedupeBySeries groups raw hits by series code, keeps the best
// (lowest) score per series, and returns the top k ascending.
func dedupeBySeries(hits []databases.SearchResult, k int) []SeriesCandidate {
	best := make(map[string]SeriesCandidate)

	for _, hit := range hits {
		code, _ := hit.Metadata["sercodigo"].(string)
		if code == "" {
			continue
		}

		candidate, seen := best[code]
		if !seen || hit.Score < candidate.Score {
			name, _ := hit.Metadata["name"].(string)
			best[code] = SeriesCandidate{
				SerCodigo: code,
				Name:      name,
				Score:     hit.Score,
			}
		}
	}

	candidates := make([]SeriesCandidate, 0, len(best))
	for _, c := range best {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		return candidates[i].SerCodigo < candidates[j].SerCodigo
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
