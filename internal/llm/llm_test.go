package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npovlab/npovscan/internal/config"
)

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		w.Write([]byte(`{"message": {"content": "INCREASES"}}`))
	}))
	defer server.Close()

	p := NewOllamaProvider("qwen2.5:7b", server.URL)
	out, err := p.Generate(context.Background(), "classify this", 16)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if out != "INCREASES" {
		t.Errorf("expected INCREASES, got %q", out)
	}

	if got["model"] != "qwen2.5:7b" {
		t.Errorf("expected model in request, got %v", got["model"])
	}
	if got["stream"] != false {
		t.Errorf("expected stream=false, got %v", got["stream"])
	}
	opts, ok := got["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %v", got["options"])
	}
	if opts["temperature"] != float64(0) {
		t.Errorf("expected temperature 0, got %v", opts["temperature"])
	}
	if opts["num_predict"] != float64(16) {
		t.Errorf("expected num_predict 16, got %v", opts["num_predict"])
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOllamaProvider("qwen2.5:7b", server.URL)
	if _, err := p.Generate(context.Background(), "x", 16); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestOllamaIsConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models": [{"name": "qwen2.5:7b"}, {"name": "llama3:8b"}]}`))
	}))
	defer server.Close()

	if !NewOllamaProvider("qwen2.5:7b", server.URL).IsConfigured() {
		t.Error("expected configured for a listed model")
	}
	if NewOllamaProvider("mistral:7b", server.URL).IsConfigured() {
		t.Error("expected not configured for an unlisted model")
	}
}

func TestOllamaIsConfiguredDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	if NewOllamaProvider("qwen2.5:7b", server.URL).IsConfigured() {
		t.Error("expected not configured when the tags endpoint fails")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var auth string
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "NO_EFFECT"}}]}`))
	}))
	defer server.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	p := NewOpenAIProvider("gpt-4o-mini", "TEST_OPENAI_KEY")
	p.baseURL = server.URL

	out, err := p.Generate(context.Background(), "classify this", 16)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if out != "NO_EFFECT" {
		t.Errorf("expected NO_EFFECT, got %q", out)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if got["temperature"] != float64(0) {
		t.Errorf("expected temperature 0, got %v", got["temperature"])
	}
	if got["max_tokens"] != float64(16) {
		t.Errorf("expected max_tokens 16, got %v", got["max_tokens"])
	}
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	p := NewOpenAIProvider("gpt-4o-mini", "TEST_OPENAI_KEY")
	p.baseURL = server.URL

	if _, err := p.Generate(context.Background(), "x", 16); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAIIsConfigured(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	if !NewOpenAIProvider("gpt-4o-mini", "TEST_OPENAI_KEY").IsConfigured() {
		t.Error("expected configured with key set")
	}
	if NewOpenAIProvider("gpt-4o-mini", "TEST_MISSING_KEY").IsConfigured() {
		t.Error("expected not configured without key")
	}
}

func TestOpenAIGenerateWithoutKey(t *testing.T) {
	p := NewOpenAIProvider("gpt-4o-mini", "TEST_MISSING_KEY")
	if _, err := p.Generate(context.Background(), "x", 16); err == nil {
		t.Error("expected error without an API key")
	}
	if p.APIKey != "" {
		t.Errorf("expected empty key, got %q", p.APIKey)
	}
}

func TestCreateProviderFallsBackToOpenAI(t *testing.T) {
	// Ollama endpoint that rejects the tags probe.
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer down.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	p := CreateProvider(config.Labeling{
		Provider:    "ollama",
		Model:       "qwen2.5:7b",
		OllamaURL:   down.URL,
		OpenAIModel: "gpt-4o-mini",
		APIKeyEnv:   "TEST_OPENAI_KEY",
	})

	openai, ok := p.(*OpenAIProvider)
	if !ok {
		t.Fatalf("expected OpenAI fallback, got %T", p)
	}
	if openai.Model != "gpt-4o-mini" {
		t.Errorf("expected fallback model, got %q", openai.Model)
	}
}

func TestCreateProviderNothingAvailable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer down.Close()

	p := CreateProvider(config.Labeling{
		Provider:    "ollama",
		Model:       "qwen2.5:7b",
		OllamaURL:   down.URL,
		OpenAIModel: "gpt-4o-mini",
		APIKeyEnv:   "TEST_MISSING_KEY",
	})
	if p != nil {
		t.Errorf("expected nil provider, got %T", p)
	}
}

func TestOllamaTrimsTrailingSlash(t *testing.T) {
	p := NewOllamaProvider("m", "http://localhost:11434/")
	if strings.HasSuffix(p.BaseURL, "/") {
		t.Errorf("expected trimmed base URL, got %q", p.BaseURL)
	}
}
