package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func newTestOpenRouterProvider(baseURL string, config *Config) *OpenRouterProvider {
	clientConfig := openai.DefaultConfig(config.OpenRouterKey)
	clientConfig.BaseURL = baseURL
	return &OpenRouterProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

func TestOpenRouterTranslate(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: " 你好世界。 "}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := newTestOpenRouterProvider(server.URL+"/v1", &Config{
		Provider:        "openrouter",
		OpenRouterKey:   "test-key",
		OpenRouterModel: "test/model",
	})

	translated, err := provider.Translate(context.Background(), "Hello world.", "en", "zh-CN")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if translated != "你好世界。" {
		t.Errorf("Expected trimmed '你好世界。', got '%s'", translated)
	}

	if gotReq.Model != "test/model" {
		t.Errorf("Expected model 'test/model', got '%s'", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("Expected system message first, got role '%s'", gotReq.Messages[0].Role)
	}
	if gotReq.Messages[1].Content != "Hello world." {
		t.Errorf("Expected user message 'Hello world.', got '%s'", gotReq.Messages[1].Content)
	}
}

func TestOpenRouterTranslate_DefaultModel(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "你好"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := newTestOpenRouterProvider(server.URL+"/v1", &Config{
		Provider:      "openrouter",
		OpenRouterKey: "test-key",
	})

	if _, err := provider.Translate(context.Background(), "hello", "en", "zh-CN"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if gotModel != "google/gemini-2.0-flash-001" {
		t.Errorf("Expected default model 'google/gemini-2.0-flash-001', got '%s'", gotModel)
	}
}

func TestOpenRouterTranslate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	provider := newTestOpenRouterProvider(server.URL+"/v1", &Config{
		Provider:      "openrouter",
		OpenRouterKey: "test-key",
	})

	_, err := provider.Translate(context.Background(), "hello", "en", "zh-CN")
	if err == nil {
		t.Fatal("Expected rate limit error")
	}

	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("Expected RateLimitError, got %T: %v", err, err)
	}
	if rateLimitErr.Provider != "openrouter" {
		t.Errorf("Expected provider 'openrouter', got '%s'", rateLimitErr.Provider)
	}
}

func TestOpenRouterTranslate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := newTestOpenRouterProvider(server.URL+"/v1", &Config{
		Provider:      "openrouter",
		OpenRouterKey: "test-key",
	})

	_, err := provider.Translate(context.Background(), "hello", "en", "zh-CN")
	if err == nil {
		t.Fatal("Expected error for empty choices")
	}
	if err.Error() != "no translation received from OpenRouter" {
		t.Errorf("Expected 'no translation received from OpenRouter', got: %v", err)
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(&Config{Provider: "openrouter"})
	if err == nil {
		t.Error("Expected error for missing API key")
	}
	if err.Error() != "OpenRouter API key is required" {
		t.Errorf("Expected 'OpenRouter API key is required' error, got: %v", err)
	}

	provider, err := NewOpenRouterProvider(&Config{Provider: "openrouter", OpenRouterKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenRouterProvider failed: %v", err)
	}
	if provider.Name() != "openrouter" {
		t.Errorf("Expected name 'openrouter', got '%s'", provider.Name())
	}
	if err := provider.IsAvailable(); err != nil {
		t.Errorf("IsAvailable() unexpected error: %v", err)
	}
}

func TestOpenRouterHints(t *testing.T) {
	provider, err := NewOpenRouterProvider(&Config{Provider: "openrouter", OpenRouterKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenRouterProvider failed: %v", err)
	}

	if got := maxChunkChars(provider); got != llmChunkChars {
		t.Errorf("maxChunkChars() = %d, want %d", got, llmChunkChars)
	}
	if got := courtesyDelay(provider); got != 500*time.Millisecond {
		t.Errorf("courtesyDelay() = %v, want %v", got, 500*time.Millisecond)
	}
}
