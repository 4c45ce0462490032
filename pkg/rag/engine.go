package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/llms"
)

// Generator is the generation capability the engine consumes.
type Generator interface {
	Generate(ctx context.Context, prompt string, backend string) (string, error)
}

// AnswerRequest is one confirmed-series question, optionally with an
// attachment.
type AnswerRequest struct {
	Question    string
	SerCodigo   string
	Attachment  []byte
	ContentType string
	Backend     string
}

// AnswerResult carries the generated answer plus the context it was
// grounded on, for presentation.
type AnswerResult struct {
	Answer      string       `json:"answer"`
	Context     string       `json:"context"`
	ChartPoints []ChartPoint `json:"chart_points"`
}

// Engine wires the two retrieval stages to the generation gateway.
type Engine struct {
	locator   *Locator
	builder   *ContextBuilder
	generator Generator
	cfg       *config.RAGConfig
}

func NewEngine(locator *Locator, builder *ContextBuilder, generator Generator, cfg *config.RAGConfig) *Engine {
	return &Engine{
		locator:   locator,
		builder:   builder,
		generator: generator,
		cfg:       cfg,
	}
}

// LocateSeries shortlists distinct series for a question. k <= 0 uses
// the configured default.
func (e *Engine) LocateSeries(ctx context.Context, question string, k int) []SeriesCandidate {
	if k <= 0 {
		k = e.cfg.TopK
	}
	return e.locator.LocateSeries(ctx, question, k)
}

// Answer runs Stage-2 for a confirmed series, assembles the bounded
// context, and asks the generation gateway.
func (e *Engine) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	seriesCtx, err := e.builder.BuildContext(ctx, req.SerCodigo, req.Question)
	if err != nil {
		return nil, err
	}

	attachmentText := ""
	if len(req.Attachment) > 0 {
		attachmentText = ExtractText(req.Attachment, req.ContentType)
	}

	assembled := Assemble(seriesCtx.Text, attachmentText, e.cfg.ContextBudget, e.cfg.AttachmentBudget)

	prompt := fmt.Sprintf(
		"Com base nos dados a seguir, responda à pergunta em português de forma objetiva.\n\n%s",
		assembled)

	answer, err := e.generator.Generate(ctx, prompt, req.Backend)
	if err != nil {
		if errors.Is(err, llms.ErrNoBackend) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return &AnswerResult{
		Answer:      answer,
		Context:     seriesCtx.Text,
		ChartPoints: seriesCtx.ChartPoints,
	}, nil
}
