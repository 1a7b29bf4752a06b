package translation

import (
	"context"
	"os"
	"testing"
)

func TestListOpenRouterModels_NoAPIKey(t *testing.T) {
	_, err := ListOpenRouterModels(context.Background(), "")
	if err == nil {
		t.Error("Expected error for missing API key")
	}

	expectedError := "OpenRouter API key not found. Set OPENROUTER_API_KEY environment variable or configure in .pdfbabel.json"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got: %v", expectedError, err)
	}
}

func TestListOpenRouterModels_Integration(t *testing.T) {
	// Skip if no API key
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENROUTER_API_KEY not set")
	}

	models, err := ListOpenRouterModels(context.Background(), apiKey)
	if err != nil {
		t.Fatalf("ListOpenRouterModels failed: %v", err)
	}
	if len(models) == 0 {
		t.Error("Expected at least one model")
	}

	t.Logf("OpenRouter models available: %d", len(models))
}
