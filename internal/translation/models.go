package translation

import (
	"context"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/pdfbabel/internal/httpclient"
)

// ListOpenRouterModels fetches the model identifiers available to the given
// OpenRouter API key, sorted alphabetically.
func ListOpenRouterModels(ctx context.Context, apiKey string) ([]string, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key not found. Set OPENROUTER_API_KEY environment variable or configure in .pdfbabel.json")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = openRouterBaseURL
	clientConfig.HTTPClient = httpclient.GetDefaultClient()
	client := openai.NewClientWithConfig(clientConfig)

	models, err := client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(models.Models))
	for _, model := range models.Models {
		ids = append(ids, model.ID)
	}
	sort.Strings(ids)

	return ids, nil
}
