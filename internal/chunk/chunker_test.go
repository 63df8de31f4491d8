package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericChunksWindow(t *testing.T) {
	var lines []string
	for i := 0; i < 250; i++ {
		lines = append(lines, "line")
	}
	src := []byte(strings.Join(lines, "\n"))

	chunks := genericChunks(src, "a.txt", "repo1", "", 120)
	require.Len(t, chunks, 3)
	assert.Equal(t, "range:0001-0120", chunks[0].Symbol)
	assert.Equal(t, "range:0121-0240", chunks[1].Symbol)
	assert.Equal(t, "range:0241-0250", chunks[2].Symbol)
	assert.Equal(t, "repo1:a.txt#range:0001-0120", chunks[0].LogicalID)
}

func TestSyntaxChunksGoFunction(t *testing.T) {
	src := []byte("package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")
	chunks, ok := syntaxChunks(src, "main.go", "repo1", ".go")
	require.True(t, ok)
	require.Len(t, chunks, 1)
	assert.Equal(t, "func:Hello", chunks[0].Symbol)
	assert.Contains(t, chunks[0].Content, "return \"hi\"")
}

func TestSplitOversizedProducesOrderedParts(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, fmt.Sprintf("x this is line %02d of content padded out", i))
	}
	content := strings.Join(lines, "\n")
	c := Chunk{
		LogicalID:   "r:p#func:Big",
		RepoID:      "r",
		Path:        "p",
		Symbol:      "func:Big",
		Content:     content,
		ContentHash: Hash(content),
		SigHash:     SigHash("func", "Big"),
		Range:       Range{StartLine: 1, EndLine: 50, ByteStart: 0, ByteEnd: len(content)},
	}

	parts := splitOversized([]Chunk{c}, 400)
	require.Greater(t, len(parts), 1)
	for i, p := range parts {
		assert.LessOrEqual(t, len(p.Content), 400+100)
		assert.Equal(t, c.SigHash, p.SigHash)
		assert.Contains(t, p.Symbol, "_part")
		if i > 0 {
			assert.NotEqual(t, parts[i-1].ContentHash, p.ContentHash)
		}
	}
}

func TestChunkerUnsupportedExtensionProducesZeroChunks(t *testing.T) {
	c := New(DefaultOptions())
	chunks, err := c.Chunks([]byte{0xFF, 0xD8}, "image.png", "repo1", "", nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
