// Package ports defines the interfaces the usecases depend on. Adapters
// implement these; the domain layer never imports an adapter.
package ports

import (
	"context"
	"errors"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// Sentinel errors shared across the port boundary. Adapters wrap these with
// the underlying cause so callers can both match and diagnose.
var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index's established dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDuplicateChunk is returned when a chunk id is inserted twice.
	// The index rejects duplicates rather than overwriting.
	ErrDuplicateChunk = errors.New("chunk id already indexed")

	// ErrCorruptStore is returned when persisted index data is unreadable
	// or internally inconsistent.
	ErrCorruptStore = errors.New("persisted index is corrupt")

	// ErrEmbeddingUnavailable is returned when the embedding backend cannot
	// produce a vector. Retry policy belongs to the caller.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrGenerationUnavailable is returned when the generation backend is
	// unreachable or fails. Retry policy belongs to the caller.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")
)

// EmbeddingService maps text to a fixed-length vector.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text from a prompt.
type LLMService interface {
	// Generate produces a response for the prompt under the given settings.
	Generate(ctx context.Context, prompt string, settings entities.GenerationSettings) (string, error)
}

// VectorIndex is the persistent similarity-search store. Implementations
// must be safe for concurrent Search; Insert, Clear and Persist are
// mutually exclusive with each other and observe consistent state.
type VectorIndex interface {
	// Insert appends one entry. Dimensionality is fixed by the first insert
	// into an empty index; later mismatches fail with ErrDimensionMismatch.
	// Re-inserting an existing chunk id fails with ErrDuplicateChunk.
	Insert(chunk entities.Chunk, vector []float32) error

	// Search scores every entry against the query (inner product over
	// normalized vectors) and returns the topK best, descending, ties
	// broken by insertion order. Empty index or topK <= 0 returns an
	// empty result, not an error.
	Search(query []float32, topK int) ([]entities.QueryResult, error)

	// Persist durably writes the full index state to dir such that Load
	// reconstructs identical search behavior. Atomic with respect to
	// process crash.
	Persist(dir string) error

	// Clear removes all entries and resets the dimensionality.
	Clear()

	// Count reports the number of stored entries.
	Count() int

	// Dimension reports the established dimensionality, 0 when empty.
	Dimension() int
}

// DocumentStore records ingested documents and conversation history.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *entities.Document) error
	ListDocuments(ctx context.Context) ([]entities.Document, error)
	SaveTurn(ctx context.Context, turn *entities.ConversationTurn) error
	ListTurns(ctx context.Context, limit int) ([]entities.ConversationTurn, error)
	Reset(ctx context.Context) error
	Close() error
}

// DocumentParser extracts plain text from uploaded document bytes.
type DocumentParser interface {
	// Parse extracts text content for the given document type.
	Parse(ctx context.Context, data []byte, docType entities.DocumentType) (string, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
