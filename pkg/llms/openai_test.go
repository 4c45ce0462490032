package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ipeadata-rag/serieshub/pkg/config"
)

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %s", got)
		}
		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "assistente") {
			t.Errorf("system prompt = %q", req.Messages[0].Content)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"resposta"}}]}`)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{Type: "openai", Host: server.URL, APIKey: "sk-test"}
	cfg.SetDefaults()

	provider, err := NewOpenAIProvider(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIProvider returned error: %v", err)
	}

	text, err := provider.Generate(context.Background(), "pergunta")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "resposta" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	cfg := &config.LLMConfig{Type: "openai"}
	if _, err := NewOpenAIProvider(cfg); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestOpenAIErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{Type: "openai", Host: server.URL, APIKey: "sk-bad"}
	cfg.SetDefaults()

	provider, err := NewOpenAIProvider(cfg)
	if err != nil {
		t.Fatal(err)
	}

	_, err = provider.Generate(context.Background(), "pergunta")
	if err == nil || !strings.Contains(err.Error(), "invalid_request_error") {
		t.Fatalf("expected API error, got %v", err)
	}
}
