// Package entities contains the core domain objects of the retrieval
// pipeline. Pure data, no knowledge of storage or model backends.
package entities

import (
	"fmt"
	"time"
)

// DocumentType tags the format the raw upload arrived in.
type DocumentType string

const (
	DocumentTypeText DocumentType = "txt"
	DocumentTypePDF  DocumentType = "pdf"
)

// Document is a source document as received at ingestion.
// Immutable once stored.
type Document struct {
	ID        string
	Name      string
	Type      DocumentType
	Content   string
	CreatedAt time.Time
}

// Chunk is a bounded segment of a document, the unit of retrieval.
type Chunk struct {
	ID         string
	DocumentID string
	SourceName string // document name, denormalized for citation
	Content    string
	Index      int // sequence within the document, from 0
	Offset     int // offset of the chunk start in the document text
	Overlap    int // characters shared with the predecessor chunk
}

// QueryResult pairs a chunk with its similarity score against a query.
type QueryResult struct {
	Chunk Chunk
	Score float64
}

// GenerationSettings controls a single generation call.
type GenerationSettings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopK        int // number of chunks to retrieve as context
}

// Validate checks the settings against their allowed ranges.
func (s GenerationSettings) Validate() error {
	if s.Temperature < 0 || s.Temperature > 1 {
		return fmt.Errorf("temperature %v out of range [0,1]", s.Temperature)
	}
	if s.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1, got %d", s.TopK)
	}
	return nil
}

// Answer is a generated response with its attribution.
// Grounded is false when no context was retrieved and the fixed fallback
// text was returned instead of calling the generator.
type Answer struct {
	Text     string
	Sources  []string // source document names, deduplicated, first-appearance order
	Grounded bool
	Model    string
}

// ConversationTurn is one question/answer exchange, persisted as chat
// history. Not required for retrieval correctness.
type ConversationTurn struct {
	ID          int64
	Question    string
	Answer      string
	Sources     []string
	Model       string
	Temperature float64
	CreatedAt   time.Time
}
