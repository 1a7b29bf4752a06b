package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/pdfbabel/internal/httpclient"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	llmChunkChars = 3000
	llmDelay      = 500 * time.Millisecond
)

// OpenRouterProvider implements Provider using OpenRouter's OpenAI-compatible
// chat completion API
type OpenRouterProvider struct {
	client *openai.Client
	config *Config
}

// NewOpenRouterProvider creates a new OpenRouter translation provider
func NewOpenRouterProvider(config *Config) (Provider, error) {
	if config.OpenRouterKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenRouterKey)
	clientConfig.BaseURL = openRouterBaseURL
	clientConfig.HTTPClient = httpclient.GetDefaultClient()

	return &OpenRouterProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Translate translates text with a single chat completion request
func (p *OpenRouterProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	model := p.config.OpenRouterModel
	if model == "" {
		model = "google/gemini-2.0-flash-001"
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: translationPrompt(sourceLang, targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.3,
		MaxTokens:   4096,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", &RateLimitError{
				Provider:   "openrouter",
				RetryAfter: 60,
			}
		}
		return "", fmt.Errorf("OpenRouter API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation received from OpenRouter")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Name returns the provider name
func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

// IsAvailable checks if the OpenRouter API is configured
func (p *OpenRouterProvider) IsAvailable() error {
	if p.config.OpenRouterKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}

	// A test API call would use credits, so just check that we have a key
	return nil
}

// MaxChunkChars reports the chunk budget for chat completion requests
func (p *OpenRouterProvider) MaxChunkChars() int {
	return llmChunkChars
}

// CourtesyDelay reports the pause between requests
func (p *OpenRouterProvider) CourtesyDelay() time.Duration {
	return llmDelay
}
