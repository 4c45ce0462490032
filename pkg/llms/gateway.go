package llms

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoBackend reports that no generation backend is registered or
// reachable for a request.
var ErrNoBackend = errors.New("no generation backend available")

// Gateway routes prompts to a preferred backend with single-hop
// fallback to the alternate.
//
// Selection order: the backend named by the request, else the
// configured preference. When the selected backend is not registered
// the alternate serves the request. A runtime generation failure is
// retried once on the alternate; if that also fails the original
// error is surfaced, not the alternate's.
type Gateway struct {
	registry  *LLMRegistry
	preferred string
}

func NewGateway(registry *LLMRegistry, preferred string) *Gateway {
	return &Gateway{
		registry:  registry,
		preferred: preferred,
	}
}

// Generate answers a prompt, applying the fallback policy.
// backend may be empty, in which case the configured preference is used.
func (g *Gateway) Generate(ctx context.Context, prompt string, backend string) (string, error) {
	primary, alternate := g.resolve(backend)
	if primary == nil && alternate == nil {
		return "", ErrNoBackend
	}
	if primary == nil {
		primary, alternate = alternate, nil
	}

	text, err := primary.Generate(ctx, prompt)
	if err == nil {
		return text, nil
	}

	if alternate == nil {
		return "", err
	}

	slog.Warn("generation backend failed, trying alternate",
		"model", primary.GetModelName(), "error", err)

	text, altErr := alternate.Generate(ctx, prompt)
	if altErr != nil {
		// The caller asked about the backend it selected.
		return "", err
	}
	return text, nil
}

// resolve picks the primary backend for a request and the one
// remaining as fallback. Either may be nil.
func (g *Gateway) resolve(backend string) (primary, alternate LLMProvider) {
	want := backend
	if want == "" {
		want = g.preferred
	}

	for _, name := range g.registry.Names() {
		provider, exists := g.registry.Get(name)
		if !exists {
			continue
		}
		if name == want {
			primary = provider
		} else if alternate == nil {
			alternate = provider
		}
	}
	return primary, alternate
}
