package translation

// ProviderError represents an error response from a translation provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Message
}

// RateLimitError indicates that the provider's rate limit has been exceeded
type RateLimitError struct {
	Provider   string
	RetryAfter int // Seconds to wait before retry
}

func (e *RateLimitError) Error() string {
	return e.Provider + ": rate limit exceeded"
}
