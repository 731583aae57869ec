package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{"short text single chunk", "hello", 10, 2, 1},
		{"exact size single chunk", strings.Repeat("a", 10), 10, 2, 1},
		{"splits with overlap", strings.Repeat("a", 25), 10, 2, 3},
		{"overlap larger than chunk falls back", strings.Repeat("a", 30), 10, 15, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)
			assert.Len(t, chunks, tt.wantChunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), tt.chunkSize)
			}
		})
	}
}

func TestSplitTextOverlapPreservesBoundaries(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := SplitText(text, 10, 4)

	// Each chunk starts overlap characters before the previous one ended.
	assert.Equal(t, "abcdefghij", chunks[0])
	assert.Equal(t, "ghijklmnop", chunks[1])

	// No content is lost.
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "z"))
}

func TestSplitTextHandlesMultibyte(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 10)
	chunks := SplitText(text, 12, 3)

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		rebuilt.WriteString(string(runes[3:]))
	}
	assert.Equal(t, text, rebuilt.String())
}
