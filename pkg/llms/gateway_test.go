package llms

import (
	"context"
	"errors"
	"testing"
)

type mockProvider struct {
	name string
	text string
	err  error

	calls int
}

func (m *mockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *mockProvider) GetModelName() string { return m.name }

func (m *mockProvider) Close() error { return nil }

func TestGatewayUsesPreferred(t *testing.T) {
	reg := NewLLMRegistry()
	local := &mockProvider{name: "llama3.2", text: "local answer"}
	remote := &mockProvider{name: "gpt-4o-mini", text: "remote answer"}
	if err := reg.RegisterLLM("ollama", local); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterLLM("openai", remote); err != nil {
		t.Fatal(err)
	}

	gw := NewGateway(reg, "ollama")
	text, err := gw.Generate(context.Background(), "pergunta", "")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "local answer" {
		t.Errorf("text = %q", text)
	}
	if remote.calls != 0 {
		t.Errorf("alternate should not be called, got %d calls", remote.calls)
	}
}

func TestGatewayRequestOverridesPreference(t *testing.T) {
	reg := NewLLMRegistry()
	local := &mockProvider{name: "llama3.2", text: "local answer"}
	remote := &mockProvider{name: "gpt-4o-mini", text: "remote answer"}
	reg.RegisterLLM("ollama", local)
	reg.RegisterLLM("openai", remote)

	gw := NewGateway(reg, "ollama")
	text, err := gw.Generate(context.Background(), "pergunta", "openai")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "remote answer" {
		t.Errorf("text = %q", text)
	}
}

func TestGatewayFallsBackWhenPreferredMissing(t *testing.T) {
	reg := NewLLMRegistry()
	remote := &mockProvider{name: "gpt-4o-mini", text: "remote answer"}
	reg.RegisterLLM("openai", remote)

	gw := NewGateway(reg, "ollama")
	text, err := gw.Generate(context.Background(), "pergunta", "")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "remote answer" {
		t.Errorf("text = %q", text)
	}
}

func TestGatewayNoBackends(t *testing.T) {
	gw := NewGateway(NewLLMRegistry(), "ollama")
	_, err := gw.Generate(context.Background(), "pergunta", "")
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestGatewayRetriesAlternateOnFailure(t *testing.T) {
	reg := NewLLMRegistry()
	local := &mockProvider{name: "llama3.2", err: errors.New("model not loaded")}
	remote := &mockProvider{name: "gpt-4o-mini", text: "remote answer"}
	reg.RegisterLLM("ollama", local)
	reg.RegisterLLM("openai", remote)

	gw := NewGateway(reg, "ollama")
	text, err := gw.Generate(context.Background(), "pergunta", "")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "remote answer" {
		t.Errorf("text = %q", text)
	}
	if local.calls != 1 || remote.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", local.calls, remote.calls)
	}
}

func TestGatewaySurfacesOriginalError(t *testing.T) {
	reg := NewLLMRegistry()
	primaryErr := errors.New("primary exploded")
	local := &mockProvider{name: "llama3.2", err: primaryErr}
	remote := &mockProvider{name: "gpt-4o-mini", err: errors.New("alternate also down")}
	reg.RegisterLLM("ollama", local)
	reg.RegisterLLM("openai", remote)

	gw := NewGateway(reg, "ollama")
	_, err := gw.Generate(context.Background(), "pergunta", "")
	if !errors.Is(err, primaryErr) {
		t.Fatalf("expected the primary error to surface, got %v", err)
	}
}

func TestCreateLLMFromConfigUnsupportedType(t *testing.T) {
	reg := NewLLMRegistry()
	_, err := reg.CreateLLMFromConfig("bad", nil)
	if err == nil {
		t.Fatal("expected error for nil config")
	}
}
