package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/ipea"
	"github.com/ipeadata-rag/serieshub/pkg/llms"
)

type fakeGenerator struct {
	answer string
	err    error

	lastPrompt  string
	lastBackend string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt, backend string) (string, error) {
	g.lastPrompt = prompt
	g.lastBackend = backend
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func newTestEngine(t *testing.T, gen Generator) (*Engine, *fakeStore) {
	t.Helper()

	cfg := &config.RAGConfig{}
	cfg.SetDefaults()

	embedder := &fakeEmbedder{dim: 8}
	store := newFakeStore()

	series := map[string][]ipea.Point{
		"X1": {pt("2019-01-01", 10), pt("2020-01-01", 20), pt("2021-01-01", 30)},
	}
	provider := &fakeProvider{series: series}
	names := fakeNames{"X1": "Exportações"}

	locator := NewLocator(embedder, store, "test", cfg.Oversample)
	builder := NewContextBuilder(provider, names)

	return NewEngine(locator, builder, gen, cfg), store
}

func TestEngineEndToEnd(t *testing.T) {
	gen := &fakeGenerator{answer: "A série cresceu de 10 para 20."}
	engine, store := newTestEngine(t, gen)

	// Index the 3-point series, then answer a question naming a
	// 2019-2020 window.
	indexer := NewIndexer(&fakeEmbedder{dim: 8}, store, "test")
	meta := &ipea.Metadata{Name: "Exportações"}
	points := []ipea.Point{pt("2019-01-01", 10), pt("2020-01-01", 20), pt("2021-01-01", 30)}
	if _, err := indexer.IndexSeries(context.Background(), "X1", points, meta); err != nil {
		t.Fatal(err)
	}

	candidates := engine.LocateSeries(context.Background(), "Como evoluiu X1 entre 2019 e 2020?", 0)
	if len(candidates) != 1 || candidates[0].SerCodigo != "X1" {
		t.Fatalf("candidates = %+v", candidates)
	}

	result, err := engine.Answer(context.Background(), AnswerRequest{
		Question:  "Como evoluiu X1 entre 2019 e 2020?",
		SerCodigo: "X1",
	})
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if len(result.ChartPoints) != 2 {
		t.Fatalf("expected 2 filtered chart points, got %d", len(result.ChartPoints))
	}
	if result.ChartPoints[0].Value != 10 || result.ChartPoints[1].Value != 20 {
		t.Errorf("chart values = %v, %v", result.ChartPoints[0].Value, result.ChartPoints[1].Value)
	}
	if !strings.Contains(result.Context, "Valor inicial: 10 em 2019-01-01") {
		t.Errorf("context missing initial value:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, "Valor final: 20 em 2020-01-01") {
		t.Errorf("context missing final value:\n%s", result.Context)
	}
	if result.Answer != "A série cresceu de 10 para 20." {
		t.Errorf("answer = %q", result.Answer)
	}
	if !strings.Contains(gen.lastPrompt, "responda à pergunta") {
		t.Errorf("prompt missing instruction:\n%s", gen.lastPrompt)
	}
}

func TestEngineAnswerWithAttachment(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Answer(context.Background(), AnswerRequest{
		Question:    "Qual a relação com o documento?",
		SerCodigo:   "X1",
		Attachment:  []byte("relatório anual em texto puro"),
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "relatório anual em texto puro") {
		t.Errorf("attachment text missing from prompt:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "--- Documento anexado ---") {
		t.Errorf("attachment section not delimited:\n%s", gen.lastPrompt)
	}
}

func TestEngineAnswerPassesBackend(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Answer(context.Background(), AnswerRequest{
		Question:  "pergunta",
		SerCodigo: "X1",
		Backend:   "openai",
	})
	if err != nil {
		t.Fatal(err)
	}
	if gen.lastBackend != "openai" {
		t.Errorf("backend = %q", gen.lastBackend)
	}
}

func TestEngineAnswerGenerationFailed(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend exploded")}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Answer(context.Background(), AnswerRequest{Question: "pergunta", SerCodigo: "X1"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestEngineAnswerNoBackend(t *testing.T) {
	gen := &fakeGenerator{err: llms.ErrNoBackend}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Answer(context.Background(), AnswerRequest{Question: "pergunta", SerCodigo: "X1"})
	if !errors.Is(err, llms.ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend to pass through, got %v", err)
	}
}

func TestEngineAnswerSeriesNotFound(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	engine, _ := newTestEngine(t, gen)

	_, err := engine.Answer(context.Background(), AnswerRequest{Question: "pergunta", SerCodigo: "MISSING"})
	if err == nil {
		t.Fatal("expected error for unknown series")
	}
}
