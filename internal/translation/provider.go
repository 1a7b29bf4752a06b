package translation

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// Provider defines the interface for machine translation providers
type Provider interface {
	// Translate translates text from sourceLang to targetLang
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// RateHints lets a provider declare its chunk size and request pacing.
// Providers that do not implement it get conservative defaults.
type RateHints interface {
	// MaxChunkChars returns the largest chunk the provider accepts
	MaxChunkChars() int

	// CourtesyDelay returns the pause between consecutive requests
	CourtesyDelay() time.Duration
}

// Defaults for providers without RateHints.
const (
	defaultChunkChars = 5000
	defaultDelay      = 1 * time.Second
)

func maxChunkChars(p Provider) int {
	if h, ok := p.(RateHints); ok {
		return h.MaxChunkChars()
	}
	return defaultChunkChars
}

func courtesyDelay(p Provider) time.Duration {
	if h, ok := p.(RateHints); ok {
		return h.CourtesyDelay()
	}
	return defaultDelay
}

// Config holds common configuration for translation providers
type Config struct {
	Provider string // Provider name: "google", "openrouter" or "gemini"

	// OpenRouter-specific settings
	OpenRouterKey   string
	OpenRouterModel string // e.g. "google/gemini-2.0-flash-001"

	// Gemini-specific settings
	GeminiKey   string
	GeminiModel string // e.g. "gemini-2.0-flash"
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:        "google",
		OpenRouterModel: "google/gemini-2.0-flash-001",
		GeminiModel:     "gemini-2.0-flash",
	}
}

// NewProvider creates the appropriate translation provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "google":
		return NewGoogleProvider(), nil

	case "openrouter":
		if config.OpenRouterKey == "" {
			return nil, fmt.Errorf("OpenRouter API key is required")
		}
		return NewOpenRouterProvider(config)

	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiProvider(config)

	default:
		return nil, fmt.Errorf("unknown translation provider: %s", config.Provider)
	}
}

// ChainFor builds the provider chain for config: the selected provider
// first, each behind a circuit breaker, then a fallback. Google serves as
// the universal fallback because it needs no API key; when google itself is
// selected, a configured LLM provider backs it up.
func ChainFor(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	primary, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	var fallback Provider
	switch config.Provider {
	case "google":
		if config.OpenRouterKey != "" {
			fallback, _ = NewOpenRouterProvider(config)
		} else if config.GeminiKey != "" {
			fallback, _ = NewGeminiProvider(config)
		}
	default:
		fallback = NewGoogleProvider()
	}

	if fallback == nil {
		return NewBreakerProvider(primary), nil
	}
	return NewProviderWithFallback(NewBreakerProvider(primary), NewBreakerProvider(fallback)), nil
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// Translate tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	translated, err := p.primary.Translate(ctx, text, sourceLang, targetLang)
	if err == nil {
		return translated, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	logger.Warn("primary translation provider failed, falling back",
		"primary", p.primary.Name(),
		"fallback", p.fallback.Name(),
		"error", err)

	return p.fallback.Translate(ctx, text, sourceLang, targetLang)
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}

// MaxChunkChars reports the primary provider's chunk limit
func (p *ProviderWithFallback) MaxChunkChars() int {
	return maxChunkChars(p.primary)
}

// CourtesyDelay reports the primary provider's request pacing
func (p *ProviderWithFallback) CourtesyDelay() time.Duration {
	return courtesyDelay(p.primary)
}

// translationPrompt builds the system instruction for the LLM providers
func translationPrompt(sourceLang, targetLang string) string {
	target := targetLang
	if lang, ok := language.Get(targetLang); ok {
		target = lang.Name
	}

	source := "the automatically detected source language"
	if !language.IsAuto(sourceLang) {
		source = sourceLang
		if lang, ok := language.Get(sourceLang); ok {
			source = lang.Name
		}
	}

	return fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s. "+
		"Preserve the original line breaks and formatting. Output only the translated text, nothing else.",
		source, target)
}
