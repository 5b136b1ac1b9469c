package usecases

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// QueryUseCase answers a question from the indexed documents: retrieve,
// compose, generate, then record the exchange as chat history.
type QueryUseCase struct {
	retriever *Retriever
	composer  *Composer
	docs      ports.DocumentStore
	log       *zap.Logger
}

// NewQueryUseCase creates a QueryUseCase.
func NewQueryUseCase(retriever *Retriever, composer *Composer, docs ports.DocumentStore, log *zap.Logger) *QueryUseCase {
	return &QueryUseCase{retriever: retriever, composer: composer, docs: docs, log: log}
}

// Query runs the full answer pipeline. History recording is best effort;
// a failed write never loses the answer.
func (uc *QueryUseCase) Query(ctx context.Context, question string, settings entities.GenerationSettings) (*entities.Answer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	results, err := uc.retriever.Retrieve(ctx, question, settings.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := uc.composer.Compose(ctx, question, results, settings)
	if err != nil {
		return nil, err
	}

	turn := &entities.ConversationTurn{
		Question:    question,
		Answer:      answer.Text,
		Sources:     answer.Sources,
		Model:       settings.Model,
		Temperature: settings.Temperature,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.docs.SaveTurn(ctx, turn); err != nil {
		uc.log.Warn("recording conversation turn failed", zap.Error(err))
	}

	uc.log.Info("query answered",
		zap.Int("retrieved", len(results)),
		zap.Bool("grounded", answer.Grounded),
		zap.Strings("sources", answer.Sources),
	)
	return answer, nil
}

// Retrieve exposes context retrieval without generation.
func (uc *QueryUseCase) Retrieve(ctx context.Context, question string, topK int) ([]entities.QueryResult, error) {
	return uc.retriever.Retrieve(ctx, question, topK)
}
