package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/snonux/pdfbabel/internal/httpclient"
	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
)

const (
	googleAPIURL = "https://translate.googleapis.com/translate_a/single"

	googleChunkChars = 5000
	googleDelay      = 1 * time.Second
)

// GoogleProvider implements Provider using the free Google Translate web
// endpoint. It needs no API key, so requests are paced conservatively.
type GoogleProvider struct {
	apiURL     string
	httpClient *http.Client
	rateLimit  *rateLimiter
}

// rateLimiter implements simple rate limiting
type rateLimiter struct {
	requestsPerMinute int
	requests          []time.Time
}

func newRateLimiter(rpm int) *rateLimiter {
	return &rateLimiter{
		requestsPerMinute: rpm,
		requests:          make([]time.Time, 0, rpm),
	}
}

func (rl *rateLimiter) wait() {
	now := time.Now()

	// Remove requests older than 1 minute
	cutoff := now.Add(-1 * time.Minute)
	i := 0
	for i < len(rl.requests) && rl.requests[i].Before(cutoff) {
		i++
	}
	rl.requests = rl.requests[i:]

	// If we're at the limit, wait
	if len(rl.requests) >= rl.requestsPerMinute {
		oldestRequest := rl.requests[0]
		waitDuration := oldestRequest.Add(1 * time.Minute).Sub(now)
		if waitDuration > 0 {
			time.Sleep(waitDuration)
		}
	}

	// Record this request
	rl.requests = append(rl.requests, now)
}

// NewGoogleProvider creates a Google Translate web endpoint client
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{
		apiURL:     googleAPIURL,
		httpClient: httpclient.GetDefaultClient(),
		rateLimit:  newRateLimiter(60), // 60 requests per minute
	}
}

// Translate translates text using the web endpoint
func (g *GoogleProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	// Apply rate limiting
	g.rateLimit.wait()

	source := sourceLang
	if language.IsAuto(sourceLang) {
		source = language.Auto
	}

	// Build query parameters
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	// Make request
	reqURL := g.apiURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{
			Provider:   "google",
			RetryAfter: 60,
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ProviderError{
			Provider: "google",
			Code:     fmt.Sprintf("%d", resp.StatusCode),
			Message:  string(body),
		}
	}

	// Parse response
	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	translated, detected, err := parseGoogleResponse(payload)
	if err != nil {
		return "", err
	}
	if detected != "" && language.IsAuto(sourceLang) {
		logger.Debug("source language detected", "lang", detected)
	}
	return translated, nil
}

// parseGoogleResponse extracts the translated text and the detected source
// language from the endpoint's keyless nested-array payload:
// [[["translated","original",...],...],null,"en",...].
func parseGoogleResponse(payload any) (text, detected string, err error) {
	outer, ok := payload.([]any)
	if !ok || len(outer) == 0 {
		return "", "", fmt.Errorf("unexpected response format")
	}

	segments, ok := outer[0].([]any)
	if !ok {
		return "", "", fmt.Errorf("unexpected response format")
	}

	var sb strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if translated, ok := parts[0].(string); ok {
			sb.WriteString(translated)
		}
	}

	if sb.Len() == 0 {
		return "", "", fmt.Errorf("no translation in response")
	}

	if len(outer) > 2 {
		detected, _ = outer[2].(string)
	}
	return sb.String(), detected, nil
}

// Name returns the provider name
func (g *GoogleProvider) Name() string {
	return "google"
}

// IsAvailable checks if the provider can be used. The web endpoint needs no
// API key, so it is always available.
func (g *GoogleProvider) IsAvailable() error {
	return nil
}

// MaxChunkChars reports the largest text the endpoint accepts per request
func (g *GoogleProvider) MaxChunkChars() int {
	return googleChunkChars
}

// CourtesyDelay reports the pause between requests
func (g *GoogleProvider) CourtesyDelay() time.Duration {
	return googleDelay
}
