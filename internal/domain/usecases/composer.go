package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// noContextAnswer is returned without calling the generator when retrieval
// produced nothing. Callers can render it distinctly via Answer.Grounded.
const noContextAnswer = "I don't have any relevant information to answer your question. Please upload some documents first."

// Composer assembles a grounded prompt from retrieved chunks and invokes
// the generation backend. It never mutates the index.
type Composer struct {
	llm ports.LLMService
}

// NewComposer creates a Composer over the given generation backend.
func NewComposer(llm ports.LLMService) *Composer {
	return &Composer{llm: llm}
}

// Compose builds the prompt from results (descending-score order, each
// tagged with its source document), generates an answer, and attributes the
// deduplicated sources in order of first appearance. Generator failures
// wrap ports.ErrGenerationUnavailable and are not retried here.
func (c *Composer) Compose(ctx context.Context, question string, results []entities.QueryResult, settings entities.GenerationSettings) (*entities.Answer, error) {
	if len(results) == 0 {
		return &entities.Answer{
			Text:     noContextAnswer,
			Sources:  []string{},
			Grounded: false,
			Model:    settings.Model,
		}, nil
	}

	text, err := c.llm.Generate(ctx, buildPrompt(question, results), settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrGenerationUnavailable, err)
	}

	return &entities.Answer{
		Text:     strings.TrimSpace(text),
		Sources:  collectSources(results),
		Grounded: true,
		Model:    settings.Model,
	}, nil
}

// buildPrompt creates the generation prompt with the retrieved context.
func buildPrompt(question string, results []entities.QueryResult) string {
	var sb strings.Builder
	sb.WriteString("You must answer based ONLY on the provided context. ")
	sb.WriteString("If the context doesn't contain enough information to answer the question, say so.\n\nContext:\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("[Source: %s]\n%s\n\n", r.Chunk.SourceName, r.Chunk.Content))
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

// collectSources deduplicates source document names, keeping first-appearance
// order.
func collectSources(results []entities.QueryResult) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.Chunk.SourceName]; ok {
			continue
		}
		seen[r.Chunk.SourceName] = struct{}{}
		sources = append(sources, r.Chunk.SourceName)
	}
	return sources
}
