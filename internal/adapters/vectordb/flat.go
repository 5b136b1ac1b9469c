// Package vectordb provides the similarity-search index behind
// ports.VectorIndex. The flat index scores every stored vector against the
// query (inner product over unit-normalized vectors, i.e. cosine), which is
// fine at the target scale of thousands of chunks; an ANN-backed adapter can
// replace it behind the same port.
package vectordb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

const (
	formatVersion = 1

	currentFile  = "CURRENT"
	vectorsFile  = "vectors.bin"
	chunksFile   = "chunks.json"
	manifestFile = "manifest.json"
)

type indexEntry struct {
	chunk  entities.Chunk
	vector []float32 // unit-normalized at insert
}

// FlatIndex implements ports.VectorIndex with an exhaustive scan.
// Entries keep insertion order; equal scores resolve to the earlier insert.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	entries []indexEntry
	ids     map[string]struct{}
}

// NewFlatIndex creates an empty index. Dimensionality is fixed by the
// first insert.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{ids: make(map[string]struct{})}
}

// Insert appends one entry. Rejects duplicate chunk ids and vectors whose
// length differs from the established dimensionality.
func (x *FlatIndex) Insert(chunk entities.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for chunk %s", ports.ErrDimensionMismatch, chunk.ID)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim == 0 {
		x.dim = len(vector)
	} else if len(vector) != x.dim {
		return fmt.Errorf("%w: got %d, index has %d", ports.ErrDimensionMismatch, len(vector), x.dim)
	}
	if _, exists := x.ids[chunk.ID]; exists {
		return fmt.Errorf("%w: %s", ports.ErrDuplicateChunk, chunk.ID)
	}

	x.entries = append(x.entries, indexEntry{chunk: chunk, vector: normalize(vector)})
	x.ids[chunk.ID] = struct{}{}
	return nil
}

// Search returns the topK most similar entries, descending by score.
func (x *FlatIndex) Search(query []float32, topK int) ([]entities.QueryResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 || topK <= 0 {
		return []entities.QueryResult{}, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ports.ErrDimensionMismatch, len(query), x.dim)
	}

	q := normalize(query)
	results := make([]entities.QueryResult, len(x.entries))
	for i, e := range x.entries {
		results[i] = entities.QueryResult{Chunk: e.chunk, Score: dot(q, e.vector)}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Clear removes all entries and resets the dimensionality.
func (x *FlatIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = 0
	x.entries = nil
	x.ids = make(map[string]struct{})
}

// Count reports the number of stored entries.
func (x *FlatIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dimension reports the established dimensionality, 0 when empty.
func (x *FlatIndex) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

type manifest struct {
	Version   int `json:"version"`
	Dimension int `json:"dimension"`
	Count     int `json:"count"`
}

type chunkRecord struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	SourceName string `json:"source_name"`
	Content    string `json:"content"`
	Index      int    `json:"index"`
	Offset     int    `json:"offset"`
	Overlap    int    `json:"overlap"`
}

// Persist writes the full index state under dir as a fresh snapshot
// directory holding three artifacts (vectors.bin, chunks.json,
// manifest.json), synced to disk, then atomically swaps the CURRENT pointer
// file to it. A crash mid-persist leaves the previous snapshot live. Takes
// the write lock: a concurrent Persist would prune the snapshot this one
// just committed.
func (x *FlatIndex) Persist(dir string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	snapName := fmt.Sprintf("snapshot-%d", time.Now().UnixNano())
	snapDir := filepath.Join(dir, snapName)
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	vectors := make([]byte, 0, len(x.entries)*x.dim*4)
	records := make([]chunkRecord, 0, len(x.entries))
	for _, e := range x.entries {
		for _, v := range e.vector {
			vectors = binary.LittleEndian.AppendUint32(vectors, math.Float32bits(v))
		}
		records = append(records, chunkRecord{
			ID:         e.chunk.ID,
			DocumentID: e.chunk.DocumentID,
			SourceName: e.chunk.SourceName,
			Content:    e.chunk.Content,
			Index:      e.chunk.Index,
			Offset:     e.chunk.Offset,
			Overlap:    e.chunk.Overlap,
		})
	}
	chunksData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}
	manifestData, err := json.Marshal(manifest{Version: formatVersion, Dimension: x.dim, Count: len(x.entries)})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	for name, data := range map[string][]byte{
		vectorsFile:  vectors,
		chunksFile:   chunksData,
		manifestFile: manifestData,
	} {
		if err := writeFileSync(filepath.Join(snapDir, name), data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := syncDir(snapDir); err != nil {
		return fmt.Errorf("syncing snapshot directory: %w", err)
	}

	// Commit point: swap the pointer, then drop superseded snapshots.
	tmp := filepath.Join(dir, currentFile+".tmp")
	if err := writeFileSync(tmp, []byte(snapName)); err != nil {
		return fmt.Errorf("writing pointer: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, currentFile)); err != nil {
		return fmt.Errorf("committing pointer: %w", err)
	}
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("syncing index directory: %w", err)
	}
	pruneSnapshots(dir, snapName)
	return nil
}

// writeFileSync writes data and fsyncs before closing, so the artifact is
// durable before the pointer swap makes it reachable.
func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Load reconstructs an index from dir. Returns os.ErrNotExist when no
// snapshot has ever been persisted there, and ports.ErrCorruptStore when
// the artifacts are unreadable or inconsistent with each other.
func Load(dir string) (*FlatIndex, error) {
	pointer, err := os.ReadFile(filepath.Join(dir, currentFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading pointer: %v", ports.ErrCorruptStore, err)
	}

	snapDir := filepath.Join(dir, strings.TrimSpace(string(pointer)))
	manifestData, err := os.ReadFile(filepath.Join(snapDir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %v", ports.ErrCorruptStore, err)
	}
	var m manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding manifest: %v", ports.ErrCorruptStore, err)
	}
	if m.Version != formatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ports.ErrCorruptStore, m.Version, formatVersion)
	}
	if m.Count < 0 || m.Dimension < 0 || (m.Count > 0 && m.Dimension == 0) {
		return nil, fmt.Errorf("%w: manifest count=%d dimension=%d", ports.ErrCorruptStore, m.Count, m.Dimension)
	}

	chunksData, err := os.ReadFile(filepath.Join(snapDir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading chunks: %v", ports.ErrCorruptStore, err)
	}
	var records []chunkRecord
	if err := json.Unmarshal(chunksData, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding chunks: %v", ports.ErrCorruptStore, err)
	}
	if len(records) != m.Count {
		return nil, fmt.Errorf("%w: %d chunks, manifest says %d", ports.ErrCorruptStore, len(records), m.Count)
	}

	vectors, err := os.ReadFile(filepath.Join(snapDir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading vectors: %v", ports.ErrCorruptStore, err)
	}
	if len(vectors) != m.Count*m.Dimension*4 {
		return nil, fmt.Errorf("%w: vector data is %d bytes, want %d",
			ports.ErrCorruptStore, len(vectors), m.Count*m.Dimension*4)
	}

	x := NewFlatIndex()
	x.dim = m.Dimension
	x.entries = make([]indexEntry, 0, m.Count)
	for i, rec := range records {
		if _, exists := x.ids[rec.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate chunk id %s", ports.ErrCorruptStore, rec.ID)
		}
		vec := make([]float32, m.Dimension)
		base := i * m.Dimension * 4
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(vectors[base+j*4:]))
		}
		x.entries = append(x.entries, indexEntry{
			chunk: entities.Chunk{
				ID:         rec.ID,
				DocumentID: rec.DocumentID,
				SourceName: rec.SourceName,
				Content:    rec.Content,
				Index:      rec.Index,
				Offset:     rec.Offset,
				Overlap:    rec.Overlap,
			},
			vector: vec,
		})
		x.ids[rec.ID] = struct{}{}
	}
	return x, nil
}

// pruneSnapshots removes superseded snapshot directories. Best effort; a
// leftover directory is unreferenced and harmless.
func pruneSnapshots(dir, keep string) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, de := range dirEntries {
		if de.IsDir() && strings.HasPrefix(de.Name(), "snapshot-") && de.Name() != keep {
			os.RemoveAll(filepath.Join(dir, de.Name()))
		}
	}
}

// normalize returns a unit-length copy; zero vectors pass through unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
