package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider using the Google Gemini API
type GeminiProvider struct {
	client *genai.Client
	config *Config
}

// NewGeminiProvider creates a new Gemini translation provider
func NewGeminiProvider(config *Config) (Provider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Translate translates text with a single generate content request
func (p *GeminiProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	model := p.config.GeminiModel
	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   4096,
		SystemInstruction: genai.NewContentFromText(translationPrompt(sourceLang, targetLang), genai.RoleUser),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", &RateLimitError{
				Provider:   "gemini",
				RetryAfter: 60,
			}
		}
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	translated := strings.TrimSpace(resp.Text())
	if translated == "" {
		return "", fmt.Errorf("no translation received from Gemini")
	}

	return translated, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the Gemini API is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

// MaxChunkChars reports the chunk budget for generate content requests
func (p *GeminiProvider) MaxChunkChars() int {
	return llmChunkChars
}

// CourtesyDelay reports the pause between requests
func (p *GeminiProvider) CourtesyDelay() time.Duration {
	return llmDelay
}
