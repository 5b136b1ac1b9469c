// Package chunker splits document text into overlapping fixed-size segments.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// ErrInvalidChunking reports a chunk size / overlap combination that cannot
// produce forward progress.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

// Split walks text producing consecutive windows of chunkSize characters,
// advancing by chunkSize-overlap each step. The final window may be shorter;
// it is never padded. Requires 0 <= overlap < chunkSize. Empty text yields
// zero chunks. Pure function.
func Split(text string, doc *entities.Document, chunkSize, overlap int) ([]entities.Chunk, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk_size=%d overlap=%d (need 0 <= overlap < chunk_size)",
			ErrInvalidChunking, chunkSize, overlap)
	}
	if len(text) == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []entities.Chunk
	for start, index := 0, 0; start < len(text); start, index = start+step, index+1 {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		lap := overlap
		if index == 0 {
			lap = 0 // first chunk has no predecessor
		}
		chunks = append(chunks, entities.Chunk{
			ID:         chunkID(doc.ID, index),
			DocumentID: doc.ID,
			SourceName: doc.Name,
			Content:    text[start:end],
			Index:      index,
			Offset:     start,
			Overlap:    lap,
		})
		if end == len(text) {
			break
		}
	}
	return chunks, nil
}

// chunkID derives a stable id from the document id and sequence index.
func chunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(docID + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(hash[:8])
}
