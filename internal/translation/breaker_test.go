package translation

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/pdfbabel/internal/testutil"
)

func TestBreakerProvider_PassesThrough(t *testing.T) {
	mock := &testutil.MockProvider{
		ProviderName: "mock",
		Translations: map[string]string{"hello": "你好"},
	}
	provider := NewBreakerProvider(mock)

	translated, err := provider.Translate(context.Background(), "hello", "en", "zh-CN")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translated != "你好" {
		t.Errorf("Expected '你好', got '%s'", translated)
	}

	if provider.Name() != "mock" {
		t.Errorf("Expected name 'mock', got '%s'", provider.Name())
	}
	if err := provider.IsAvailable(); err != nil {
		t.Errorf("IsAvailable() unexpected error: %v", err)
	}
}

func TestBreakerProvider_OpensAfterConsecutiveFailures(t *testing.T) {
	mock := &testutil.MockProvider{
		ProviderName: "mock",
		Errors:       map[string]error{"hello": errors.New("boom")},
	}
	provider := NewBreakerProvider(mock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := provider.Translate(ctx, "hello", "en", "zh-CN"); err == nil {
			t.Fatalf("Translate %d: expected error", i+1)
		}
	}

	if len(mock.Calls) != 3 {
		t.Errorf("Expected 3 provider calls, got %d", len(mock.Calls))
	}

	// Circuit is open now, the provider must not be hit again
	_, err := provider.Translate(ctx, "hello", "en", "zh-CN")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected open circuit error, got: %v", err)
	}
	if len(mock.Calls) != 3 {
		t.Errorf("Expected no further provider calls, got %d", len(mock.Calls))
	}

	expected := "mock: circuit open after repeated failures"
	if err := provider.IsAvailable(); err == nil || err.Error() != expected {
		t.Errorf("Expected error '%s', got: %v", expected, err)
	}
}

func TestBreakerProvider_SuccessResetsFailures(t *testing.T) {
	mock := &testutil.MockProvider{
		ProviderName: "mock",
		Errors:       map[string]error{"bad": errors.New("boom")},
	}
	provider := NewBreakerProvider(mock)
	ctx := context.Background()

	// Two failures, a success, two more failures: the circuit stays closed
	provider.Translate(ctx, "bad", "en", "zh-CN")
	provider.Translate(ctx, "bad", "en", "zh-CN")
	if _, err := provider.Translate(ctx, "good", "en", "zh-CN"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	provider.Translate(ctx, "bad", "en", "zh-CN")
	provider.Translate(ctx, "bad", "en", "zh-CN")

	if provider.breaker.State() != gobreaker.StateClosed {
		t.Errorf("Expected closed circuit, got %v", provider.breaker.State())
	}
}

func TestBreakerProvider_Hints(t *testing.T) {
	provider := NewBreakerProvider(NewGoogleProvider())

	if got := provider.MaxChunkChars(); got != googleChunkChars {
		t.Errorf("MaxChunkChars() = %d, want %d", got, googleChunkChars)
	}
	if got := provider.CourtesyDelay(); got != googleDelay {
		t.Errorf("CourtesyDelay() = %v, want %v", got, googleDelay)
	}
}
