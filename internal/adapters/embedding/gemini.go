package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiAdapter embeds text through the Gemini API.
type GeminiAdapter struct {
	apiKey string
	model  string
}

// NewGeminiAdapter creates a Gemini embedding adapter.
func NewGeminiAdapter(apiKey, model string) *GeminiAdapter {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiAdapter{apiKey: apiKey, model: model}
}

// Embed generates an embedding for a single text.
func (a *GeminiAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		a.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("calling gemini: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding values")
	}
	return resp.Embeddings[0].Values, nil
}

// EmbedBatch generates embeddings for multiple texts, sequentially.
func (a *GeminiAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := a.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
