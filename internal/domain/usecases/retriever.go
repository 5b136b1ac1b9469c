// Package usecases contains the application flows: ingestion, retrieval,
// and grounded answer generation. Usecases orchestrate entities through the
// port interfaces and hold no framework code.
package usecases

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

const embeddingCacheSize = 128

// Retriever embeds a query and asks the vector index for the most similar
// chunks. Query embeddings are cached by text; the embedder is deterministic
// for a given model, so cached vectors never go stale across index mutations.
type Retriever struct {
	embedder ports.EmbeddingService
	index    ports.VectorIndex
	cache    *lru.Cache[string, []float32]
}

// NewRetriever creates a Retriever over the given embedder and index.
func NewRetriever(embedder ports.EmbeddingService, index ports.VectorIndex) (*Retriever, error) {
	cache, err := lru.New[string, []float32](embeddingCacheSize)
	if err != nil {
		return nil, err
	}
	return &Retriever{embedder: embedder, index: index, cache: cache}, nil
}

// Retrieve returns the topK chunks most similar to queryText, descending by
// score. Embedder failures wrap ports.ErrEmbeddingUnavailable and are not
// retried here.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, topK int) ([]entities.QueryResult, error) {
	vector, ok := r.cache.Get(queryText)
	if !ok {
		var err error
		vector, err = r.embedder.Embed(ctx, queryText)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrEmbeddingUnavailable, err)
		}
		r.cache.Add(queryText, vector)
	}
	return r.index.Search(vector, topK)
}
