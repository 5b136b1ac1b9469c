package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

func testDoc() *entities.Document {
	return &entities.Document{ID: "doc-1", Name: "test.txt"}
}

func TestSplit_RejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk size", 10, 10},
		{"overlap exceeds chunk size", 10, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("some text", testDoc(), tc.chunkSize, tc.overlap)
			require.ErrorIs(t, err, ErrInvalidChunking)
		})
	}
}

func TestSplit_EmptyTextProducesNoChunks(t *testing.T) {
	chunks, err := Split("", testDoc(), 100, 10)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_ShortTextProducesSingleChunk(t *testing.T) {
	chunks, err := Split("tiny", testDoc(), 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].Overlap)
}

func TestSplit_WindowsAndOverlap(t *testing.T) {
	text := "abcdefghij" // 10 chars
	chunks, err := Split(text, testDoc(), 4, 2)
	require.NoError(t, err)

	// step 2: [0:4] [2:6] [4:8] [6:10]
	require.Len(t, chunks, 4)
	assert.Equal(t, "abcd", chunks[0].Content)
	assert.Equal(t, "cdef", chunks[1].Content)
	assert.Equal(t, "efgh", chunks[2].Content)
	assert.Equal(t, "ghij", chunks[3].Content)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "doc-1", ch.DocumentID)
		assert.Equal(t, "test.txt", ch.SourceName)
		if i == 0 {
			assert.Equal(t, 0, ch.Overlap)
		} else {
			assert.Equal(t, 2, ch.Overlap)
		}
		assert.LessOrEqual(t, len(ch.Content), 4)
	}
}

func TestSplit_ReconstructsOriginalText(t *testing.T) {
	texts := []string{
		"The sky is blue. Grass is green.",
		strings.Repeat("abcdefg ", 50),
		"x",
		strings.Repeat("z", 501),
	}
	configs := []struct{ size, overlap int }{
		{20, 5}, {500, 50}, {7, 0}, {3, 2},
	}
	for _, text := range texts {
		for _, cfg := range configs {
			chunks, err := Split(text, testDoc(), cfg.size, cfg.overlap)
			require.NoError(t, err)

			var sb strings.Builder
			for _, ch := range chunks {
				sb.WriteString(ch.Content[ch.Overlap:])
			}
			assert.Equal(t, text, sb.String(),
				"size=%d overlap=%d", cfg.size, cfg.overlap)
		}
	}
}

func TestSplit_ChunkIDsAreStableAndUnique(t *testing.T) {
	chunks, err := Split(strings.Repeat("a", 100), testDoc(), 10, 0)
	require.NoError(t, err)

	again, err := Split(strings.Repeat("a", 100), testDoc(), 10, 0)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i, ch := range chunks {
		assert.Equal(t, again[i].ID, ch.ID)
		assert.False(t, seen[ch.ID], "duplicate chunk id %s", ch.ID)
		seen[ch.ID] = true
	}
}
