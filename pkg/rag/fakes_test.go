package rag

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/ipeadata-rag/serieshub/pkg/databases"
	"github.com/ipeadata-rag/serieshub/pkg/ipea"
)

// fakeEmbedder produces deterministic unit vectors from text so that
// identical texts are nearest neighbors.
type fakeEmbedder struct {
	dim int
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, f.dim)
	for i, r := range text {
		vec[i%f.dim] += float32(r)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (f *fakeEmbedder) GetDimension() int { return f.dim }

func (f *fakeEmbedder) GetModelName() string { return "fake" }

func (f *fakeEmbedder) Close() error { return nil }

type storedDoc struct {
	vector   []float32
	metadata map[string]interface{}
}

// fakeStore is an in-memory vector index with exact cosine distance.
type fakeStore struct {
	docs      map[string]storedDoc
	searchErr error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]storedDoc)}
}

func (s *fakeStore) EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error {
	return nil
}

func (s *fakeStore) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]interface{}) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.docs[id] = storedDoc{vector: vector, metadata: metadata}
	return nil
}

func (s *fakeStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	results := make([]databases.SearchResult, 0, len(s.docs))
	for id, doc := range s.docs {
		content, _ := doc.metadata["text"].(string)
		results = append(results, databases.SearchResult{
			ID:       id,
			Score:    cosineDistance(vector, doc.vector),
			Content:  content,
			Metadata: doc.metadata,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *fakeStore) DistinctValues(ctx context.Context, collection, field string) ([]string, error) {
	seen := make(map[string]bool)
	for _, doc := range s.docs {
		if v, ok := doc.metadata[field].(string); ok && v != "" {
			seen[v] = true
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func (s *fakeStore) Delete(ctx context.Context, collection, id string) error {
	delete(s.docs, id)
	return nil
}

func (s *fakeStore) DeleteCollection(ctx context.Context, collection string) error {
	s.docs = make(map[string]storedDoc)
	return nil
}

func (s *fakeStore) Close() error { return nil }

func cosineDistance(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// fakeProvider serves canned series per code.
type fakeProvider struct {
	series map[string][]ipea.Point
	err    error
}

func (p *fakeProvider) FetchSeries(ctx context.Context, code string) ([]ipea.Point, error) {
	if p.err != nil {
		return nil, p.err
	}
	points, ok := p.series[code]
	if !ok {
		return nil, errors.New("series not found: " + code)
	}
	return points, nil
}

// fakeNames resolves names from a map, falling back to the code.
type fakeNames map[string]string

func (n fakeNames) DisplayName(code string) string {
	if name, ok := n[code]; ok {
		return name
	}
	return code
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func pt(date string, value float64) ipea.Point {
	return ipea.Point{Date: mustDate(date), Value: value}
}
