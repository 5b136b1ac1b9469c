package usecases

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// hashEmbedder is a deterministic bag-of-words embedder: each lowercased
// word increments a hashed bucket. Shared vocabulary yields high cosine
// similarity, which is enough to exercise retrieval end to end.
type hashEmbedder struct {
	dim int
}

func (e hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(e.dim)]++
	}
	return vec, nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// mockEmbedder counts calls and can be forced to fail.
type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	inner hashEmbedder
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{inner: hashEmbedder{dim: 64}}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM records the last prompt and returns a canned answer.
type mockLLM struct {
	mu       sync.Mutex
	prompt   string
	settings entities.GenerationSettings
	answer   string
	err      error
	calls    int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, settings entities.GenerationSettings) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompt = prompt
	m.settings = settings
	if m.err != nil {
		return "", m.err
	}
	if m.answer == "" {
		return "a generated answer", nil
	}
	return m.answer, nil
}

// mockDocStore is an in-memory ports.DocumentStore.
type mockDocStore struct {
	mu    sync.Mutex
	docs  []entities.Document
	turns []entities.ConversationTurn
}

func (m *mockDocStore) SaveDocument(ctx context.Context, doc *entities.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *mockDocStore) ListDocuments(ctx context.Context) ([]entities.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.Document(nil), m.docs...), nil
}

func (m *mockDocStore) SaveTurn(ctx context.Context, turn *entities.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	turn.ID = int64(len(m.turns) + 1)
	m.turns = append(m.turns, *turn)
	return nil
}

func (m *mockDocStore) ListTurns(ctx context.Context, limit int) ([]entities.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.ConversationTurn(nil), m.turns...), nil
}

func (m *mockDocStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	m.turns = nil
	return nil
}

func (m *mockDocStore) Close() error { return nil }
