package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// BreakerProvider wraps a provider with a circuit breaker so a broken
// service is skipped quickly instead of timing out on every chunk.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps inner with a circuit breaker. The circuit opens
// after three consecutive failures and probes again after 30 seconds.
func NewBreakerProvider(inner Provider) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("translation provider circuit changed",
				"provider", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Translate runs the translation through the circuit breaker
func (b *BreakerProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Translate(ctx, text, sourceLang, targetLang)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Name returns the wrapped provider's name
func (b *BreakerProvider) Name() string {
	return b.inner.Name()
}

// IsAvailable checks the circuit state and the wrapped provider
func (b *BreakerProvider) IsAvailable() error {
	if b.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: circuit open after repeated failures", b.inner.Name())
	}
	return b.inner.IsAvailable()
}

// MaxChunkChars reports the wrapped provider's chunk limit
func (b *BreakerProvider) MaxChunkChars() int {
	return maxChunkChars(b.inner)
}

// CourtesyDelay reports the wrapped provider's request pacing
func (b *BreakerProvider) CourtesyDelay() time.Duration {
	return courtesyDelay(b.inner)
}
