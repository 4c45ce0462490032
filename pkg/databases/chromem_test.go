package databases

import (
	"context"
	"testing"

	"github.com/ipeadata-rag/serieshub/pkg/config"
)

func newTestChromem(t *testing.T) DatabaseProvider {
	t.Helper()
	provider, err := NewChromemDatabaseProviderFromConfig(&config.VectorStoreConfig{
		Type: "chromem",
	})
	if err != nil {
		t.Fatalf("NewChromemDatabaseProviderFromConfig() error = %v", err)
	}
	return provider
}

func TestChromem_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	if err := store.EnsureCollection(ctx, "series", 3); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}

	docs := []struct {
		id     string
		vector []float32
		code   string
	}{
		{"A1:0", []float32{1, 0, 0}, "A1"},
		{"A1:1", []float32{0.9, 0.1, 0}, "A1"},
		{"B2:0", []float32{0, 1, 0}, "B2"},
	}
	for _, d := range docs {
		err := store.Upsert(ctx, "series", d.id, d.vector, map[string]interface{}{
			"text":      "Série " + d.code,
			"sercodigo": d.code,
		})
		if err != nil {
			t.Fatalf("Upsert(%s) error = %v", d.id, err)
		}
	}

	results, err := store.Search(ctx, "series", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Scores are cosine distance: ascending means most similar first.
	if results[0].ID != "A1:0" {
		t.Errorf("expected A1:0 first, got %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score > results[i].Score {
			t.Errorf("results not sorted ascending by distance: %v > %v",
				results[i-1].Score, results[i].Score)
		}
	}
}

func TestChromem_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	for i := 0; i < 2; i++ {
		err := store.Upsert(ctx, "series", "X1:0", []float32{1, 0, 0}, map[string]interface{}{
			"text":      "Série X1",
			"sercodigo": "X1",
		})
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	results, err := store.Search(ctx, "series", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 document after re-upsert, got %d", len(results))
	}
}

func TestChromem_SearchCapsTopK(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	err := store.Upsert(ctx, "series", "A1:0", []float32{1, 0, 0}, map[string]interface{}{
		"sercodigo": "A1",
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// topK above document count must not error.
	results, err := store.Search(ctx, "series", []float32{1, 0, 0}, 50)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestChromem_DistinctValues(t *testing.T) {
	ctx := context.Background()
	store := newTestChromem(t)

	for i, code := range []string{"A1", "A1", "B2"} {
		err := store.Upsert(ctx, "series", code+":"+string(rune('0'+i)), []float32{1, 0, 0}, map[string]interface{}{
			"sercodigo": code,
		})
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	values, err := store.DistinctValues(ctx, "series", "sercodigo")
	if err != nil {
		t.Fatalf("DistinctValues() error = %v", err)
	}
	if len(values) != 2 {
		t.Errorf("expected 2 distinct codes, got %v", values)
	}
}
