// Package llm provides the text-generation backends behind
// ports.LLMService.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// OllamaAdapter generates text through a local Ollama instance.
type OllamaAdapter struct {
	baseURL string
	client  *http.Client
}

// NewOllamaAdapter creates an Ollama generation adapter.
func NewOllamaAdapter(baseURL string) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaAdapter{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate produces a response for the prompt under the given settings.
func (a *OllamaAdapter) Generate(ctx context.Context, prompt string, settings entities.GenerationSettings) (string, error) {
	model := settings.Model
	if model == "" {
		model = "llama3.2"
	}
	options := map[string]any{
		"temperature": settings.Temperature,
	}
	if settings.MaxTokens > 0 {
		options["num_predict"] = settings.MaxTokens
	}
	reqBody := ollamaGenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return genResp.Response, nil
}
