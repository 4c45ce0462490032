package embedders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipeadata-rag/serieshub/pkg/config"
)

func TestFitDimension(t *testing.T) {
	cases := []struct {
		name string
		in   []float32
		dim  int
		want []float32
	}{
		{"exact", []float32{1, 2, 3}, 3, []float32{1, 2, 3}},
		{"truncate", []float32{1, 2, 3, 4, 5}, 3, []float32{1, 2, 3}},
		{"pad", []float32{1, 2}, 4, []float32{1, 2, 0, 0}},
		{"empty_to_dim", nil, 2, []float32{0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FitDimension(tc.in, tc.dim)
			if len(got) != tc.dim {
				t.Fatalf("expected length %d, got %d", tc.dim, len(got))
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("component %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestOllamaEmbedder_RepairsDimension(t *testing.T) {
	// Model returns 5 components, configured dimension is 3.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": []float32{0.1, 0.2, 0.3, 0.4, 0.5},
		})
	}))
	defer server.Close()

	embedder, err := NewOllamaEmbedderFromConfig(&config.EmbedderConfig{
		Type:       "ollama",
		Model:      "nomic-embed-text",
		Host:       server.URL,
		Dimension:  3,
		Timeout:    5,
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbedderFromConfig() error = %v", err)
	}

	vec, err := embedder.Embed(context.Background(), "inflação anual")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected repaired dimension 3, got %d", len(vec))
	}
}

func TestOpenAIEmbedder_RepairsShortVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.5, 0.5}, "index": 0},
			},
			"model": "text-embedding-3-small",
		})
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedderFromConfig(&config.EmbedderConfig{
		Type:       "openai",
		Model:      "text-embedding-3-small",
		Host:       server.URL,
		APIKey:     "test-key",
		Dimension:  4,
		Timeout:    5,
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedderFromConfig() error = %v", err)
	}

	vec, err := embedder.Embed(context.Background(), "PIB trimestral")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("expected padded dimension 4, got %d", len(vec))
	}
	if vec[2] != 0 || vec[3] != 0 {
		t.Errorf("expected zero padding, got %v", vec)
	}
}

func TestOpenAIEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedderFromConfig(&config.EmbedderConfig{Type: "openai"})
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestEmbedderRegistry_UnsupportedType(t *testing.T) {
	r := NewEmbedderRegistry()
	_, err := r.CreateEmbedderFromConfig("bogus", &config.EmbedderConfig{Type: "bogus"})
	if err == nil {
		t.Error("expected error for unsupported embedder type")
	}
}
