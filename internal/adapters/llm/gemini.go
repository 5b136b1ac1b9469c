package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// GeminiAdapter generates text through the Gemini API.
type GeminiAdapter struct {
	apiKey string
}

// NewGeminiAdapter creates a Gemini generation adapter.
func NewGeminiAdapter(apiKey string) *GeminiAdapter {
	return &GeminiAdapter{apiKey: apiKey}
}

// Generate produces a response for the prompt under the given settings.
func (a *GeminiAdapter) Generate(ctx context.Context, prompt string, settings entities.GenerationSettings) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}

	model := settings.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(settings.Temperature)),
	}
	if settings.MaxTokens > 0 {
		config.MaxOutputTokens = int32(settings.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
