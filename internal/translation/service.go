package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/snonux/pdfbabel/internal/chunker"
	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// Translator is the interface consumers of the translation service depend on
type Translator interface {
	// Translate translates a single text
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// TranslateBatch translates texts preserving order and length
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)

	// Name returns the underlying provider name
	Name() string
}

// Service translates text through a provider. Long input is split into
// sentence-aligned chunks sized for the provider, results are cached, and a
// chunk that cannot be translated keeps its original text.
type Service struct {
	provider Provider
	cache    *Cache

	// sleep is replaceable in tests
	sleep func(time.Duration)
}

// NewService creates a translation service. cache may be nil to disable
// caching.
func NewService(provider Provider, cache *Cache) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		sleep:    time.Sleep,
	}
}

// Name returns the underlying provider name
func (s *Service) Name() string {
	return s.provider.Name()
}

// Translate translates a single text. Failed chunks keep their original
// text so no content is lost; the failure is reported through the log.
// An error is returned only for invalid input or a cancelled context.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if !language.IsValidSource(sourceLang) {
		return "", fmt.Errorf("unknown source language: %s", sourceLang)
	}
	if !language.IsValidTarget(targetLang) {
		return "", fmt.Errorf("unknown target language: %s", targetLang)
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := chunker.Split(text, maxChunkChars(s.provider))
	delay := courtesyDelay(s.provider)

	translated := make([]string, 0, len(chunks))
	failed := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if i > 0 && delay > 0 {
			s.sleep(delay)
		}

		out, err := s.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			logger.Warn("chunk translation failed, keeping original text",
				"chunk", i+1, "chunks", len(chunks), "error", err)
			translated = append(translated, chunk)
			failed++
			continue
		}
		translated = append(translated, out)
	}

	if failed > 0 {
		logger.Warn("translation incomplete, original text kept for failed chunks",
			"failed", failed, "chunks", len(chunks), "provider", s.provider.Name())
	}

	return joinChunks(translated), nil
}

// TranslateBatch translates texts in order. The result always has the same
// length and order as the input; entries that fail keep their original text.
func (s *Service) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	results := make([]string, len(texts))
	for i, text := range texts {
		translated, err := s.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		results[i] = translated
	}
	return results, nil
}

func (s *Service) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, error) {
	// Check cache first
	if s.cache != nil {
		if cached, ok := s.cache.Get(s.provider.Name(), sourceLang, targetLang, chunk); ok {
			return cached, nil
		}
	}

	translated, err := s.provider.Translate(ctx, chunk, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	translated = strings.TrimSpace(translated)

	if s.cache != nil {
		_ = s.cache.Put(s.provider.Name(), sourceLang, targetLang, chunk, translated) // Ignore cache errors
	}

	return translated, nil
}

// joinChunks merges translated chunks back into one text. Providers trim
// their output, so chunks are rejoined with single spaces; line breaks
// inside a chunk are preserved as-is.
func joinChunks(chunks []string) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		parts = append(parts, chunk)
	}
	return strings.Join(parts, " ")
}
