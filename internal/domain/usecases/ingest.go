package usecases

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/docchat-go/internal/domain/chunker"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// IngestUseCase turns an uploaded document into indexed, persisted chunks.
type IngestUseCase struct {
	parser    ports.DocumentParser
	embedder  ports.EmbeddingService
	index     ports.VectorIndex
	docs      ports.DocumentStore
	log       *zap.Logger
	indexDir  string
	chunkSize int
	overlap   int
}

// NewIngestUseCase creates an IngestUseCase. chunkSize and overlap are
// validated by the chunker on first use.
func NewIngestUseCase(
	parser ports.DocumentParser,
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	docs ports.DocumentStore,
	log *zap.Logger,
	indexDir string,
	chunkSize, overlap int,
) *IngestUseCase {
	return &IngestUseCase{
		parser:    parser,
		embedder:  embedder,
		index:     index,
		docs:      docs,
		log:       log,
		indexDir:  indexDir,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Ingest parses the raw upload, chunks it, embeds every chunk, inserts the
// vectors, records the document, and persists an index snapshot. A failed
// embedding aborts before anything is inserted. Each upload gets a fresh
// document id; re-uploading the same file indexes it as a new document.
func (uc *IngestUseCase) Ingest(ctx context.Context, name string, docType entities.DocumentType, raw []byte) (*entities.Document, int, error) {
	text, err := uc.parser.Parse(ctx, raw, docType)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing %s: %w", name, err)
	}

	doc := &entities.Document{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      docType,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}

	chunks, err := chunker.Split(text, doc, uc.chunkSize, uc.overlap)
	if err != nil {
		return nil, 0, err
	}
	if len(chunks) == 0 {
		uc.log.Info("document has no indexable text", zap.String("name", name))
		return doc, 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ports.ErrEmbeddingUnavailable, err)
	}

	for i, ch := range chunks {
		if err := uc.index.Insert(ch, vectors[i]); err != nil {
			return nil, 0, fmt.Errorf("indexing chunk %d of %s: %w", ch.Index, name, err)
		}
	}

	if err := uc.docs.SaveDocument(ctx, doc); err != nil {
		return nil, 0, fmt.Errorf("recording document %s: %w", name, err)
	}
	if err := uc.index.Persist(uc.indexDir); err != nil {
		return nil, 0, fmt.Errorf("persisting index: %w", err)
	}

	uc.log.Info("document ingested",
		zap.String("id", doc.ID),
		zap.String("name", name),
		zap.Int("chunks", len(chunks)),
		zap.Int("index_size", uc.index.Count()),
	)
	return doc, len(chunks), nil
}

// Reset clears the knowledge base: the persisted snapshots, the document
// catalog, chat history, and the in-memory index. Durable state is deleted
// first; the in-memory index is cleared only once that succeeds.
func (uc *IngestUseCase) Reset(ctx context.Context) error {
	if err := os.RemoveAll(uc.indexDir); err != nil {
		return fmt.Errorf("removing index snapshots: %w", err)
	}
	if err := uc.docs.Reset(ctx); err != nil {
		return fmt.Errorf("resetting document store: %w", err)
	}
	uc.index.Clear()
	uc.log.Info("knowledge base reset")
	return nil
}
