package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newTestGoogleProvider(serverURL string) *GoogleProvider {
	return &GoogleProvider{
		apiURL:     serverURL,
		httpClient: http.DefaultClient,
		rateLimit:  newRateLimiter(1000),
	}
}

func TestGoogleTranslate(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[[["你好世界。","Hello world.",null,null,10]],null,"en"]`)
	}))
	defer server.Close()

	provider := newTestGoogleProvider(server.URL)

	translated, err := provider.Translate(context.Background(), "Hello world.", "auto", "zh-CN")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if translated != "你好世界。" {
		t.Errorf("Expected '你好世界。', got '%s'", translated)
	}

	if gotQuery.Get("client") != "gtx" {
		t.Errorf("Expected client 'gtx', got '%s'", gotQuery.Get("client"))
	}
	if gotQuery.Get("sl") != "auto" {
		t.Errorf("Expected source 'auto', got '%s'", gotQuery.Get("sl"))
	}
	if gotQuery.Get("tl") != "zh-CN" {
		t.Errorf("Expected target 'zh-CN', got '%s'", gotQuery.Get("tl"))
	}
	if gotQuery.Get("q") != "Hello world." {
		t.Errorf("Expected query 'Hello world.', got '%s'", gotQuery.Get("q"))
	}
}

func TestGoogleTranslate_MultipleSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[[["第一句。","First sentence.",null],["第二句。","Second sentence.",null]],null,"en"]`)
	}))
	defer server.Close()

	provider := newTestGoogleProvider(server.URL)

	translated, err := provider.Translate(context.Background(), "First sentence. Second sentence.", "en", "zh-CN")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if translated != "第一句。第二句。" {
		t.Errorf("Expected '第一句。第二句。', got '%s'", translated)
	}
}

func TestGoogleTranslate_EmptySourceMapsToAuto(t *testing.T) {
	var gotSource string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSource = r.URL.Query().Get("sl")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[[["你好","hello",null]],null,"en"]`)
	}))
	defer server.Close()

	provider := newTestGoogleProvider(server.URL)

	if _, err := provider.Translate(context.Background(), "hello", "", "zh-CN"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if gotSource != "auto" {
		t.Errorf("Expected source 'auto', got '%s'", gotSource)
	}
}

func TestGoogleTranslate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := newTestGoogleProvider(server.URL)

	_, err := provider.Translate(context.Background(), "hello", "en", "zh-CN")
	if err == nil {
		t.Fatal("Expected rate limit error")
	}

	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("Expected RateLimitError, got %T: %v", err, err)
	}
	if rateLimitErr.Provider != "google" {
		t.Errorf("Expected provider 'google', got '%s'", rateLimitErr.Provider)
	}
}

func TestGoogleTranslate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := newTestGoogleProvider(server.URL)

	_, err := provider.Translate(context.Background(), "hello", "en", "zh-CN")
	if err == nil {
		t.Fatal("Expected error for server failure")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Expected ProviderError, got %T: %v", err, err)
	}
	if providerErr.Code != "500" {
		t.Errorf("Expected code '500', got '%s'", providerErr.Code)
	}
}

func TestGoogleTranslate_EmptyTextSkipsRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	provider := newTestGoogleProvider(server.URL)

	translated, err := provider.Translate(context.Background(), "   ", "en", "zh-CN")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translated != "   " {
		t.Errorf("Expected whitespace passthrough, got %q", translated)
	}
	if requests != 0 {
		t.Errorf("Expected no requests for empty text, got %d", requests)
	}
}

func TestParseGoogleResponse_Malformed(t *testing.T) {
	payloads := []any{
		nil,
		"not an array",
		[]any{},
		map[string]any{"error": "nope"},
		[]any{[]any{}},
		[]any{"not segments"},
	}

	for i, payload := range payloads {
		if _, _, err := parseGoogleResponse(payload); err == nil {
			t.Errorf("payload %d: expected error, got none", i)
		}
	}
}

func TestParseGoogleResponse_DetectedSource(t *testing.T) {
	var payload any
	if err := json.Unmarshal([]byte(`[[["你好","hello",null]],null,"en"]`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	text, detected, err := parseGoogleResponse(payload)
	if err != nil {
		t.Fatalf("parseGoogleResponse: %v", err)
	}
	if text != "你好" {
		t.Errorf("text = %q", text)
	}
	if detected != "en" {
		t.Errorf("detected = %q, want en", detected)
	}
}

func TestGoogleProviderMetadata(t *testing.T) {
	provider := NewGoogleProvider()

	if provider.Name() != "google" {
		t.Errorf("Expected name 'google', got '%s'", provider.Name())
	}
	if err := provider.IsAvailable(); err != nil {
		t.Errorf("IsAvailable() unexpected error: %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(100)

	start := time.Now()
	for i := 0; i < 5; i++ {
		rl.wait()
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("wait() blocked while under the limit: %v", elapsed)
	}

	if len(rl.requests) != 5 {
		t.Errorf("Expected 5 recorded requests, got %d", len(rl.requests))
	}
}
