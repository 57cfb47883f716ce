package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble strips the overlap seed from each chunk and concatenates the
// remaining spans in sequence order.
func reassemble(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text[c.Overlap:])
	}
	return sb.String()
}

func TestNewChunkerValidation(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		overlap int
		wantErr bool
	}{
		{"valid", 100, 0, false},
		{"valid with overlap", 100, 20, false},
		{"zero size", 0, 0, true},
		{"negative size", -5, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.maxSize, tt.overlap)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c, err := NewChunker(100, 0)
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\n\n"} {
		chunks, err := c.Chunk(input)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunkReconstruction(t *testing.T) {
	doc := `# Guide

First paragraph with some prose in it.

Second paragraph, a bit longer than the first one, talking about setup.

## Details

Third paragraph closes out the document with final remarks.
`
	for _, overlap := range []int{0, 10, 25} {
		c, err := NewChunker(60, overlap)
		require.NoError(t, err)

		chunks, err := c.Chunk(doc)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		assert.Equal(t, doc, reassemble(chunks), "overlap=%d", overlap)
		for i, ch := range chunks {
			assert.Equal(t, i, ch.Seq)
			assert.Equal(t, ch.Text[ch.Overlap:], doc[ch.Start:ch.End])
		}
	}
}

func TestChunkSizeBound(t *testing.T) {
	doc := strings.Repeat("word and more words in a sentence. ", 40)
	c, err := NewChunker(120, 30)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		if !ch.Oversize {
			assert.LessOrEqual(t, len(ch.Text), 120, "chunk %d", ch.Seq)
		}
	}
	assert.Equal(t, doc, reassemble(chunks))
}

func TestChunkThreeParagraphScenario(t *testing.T) {
	doc := "Alpha paragraph goes here first.\n\nBeta paragraph is second in line.\n\nGamma paragraph ends the doc.\n"
	c, err := NewChunker(50, 0)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)

	// Each paragraph plus its separator exceeds what fits alongside the
	// next one, so splits land on paragraph boundaries.
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 50)
		assert.False(t, ch.Oversize)
	}
	assert.Equal(t, doc, reassemble(chunks))
}

func TestChunkHeadingPath(t *testing.T) {
	doc := `# Top

Intro text under the top heading, long enough to fill one chunk fully.

## Nested

Body under the nested heading, also long enough to stand on its own.
`
	c, err := NewChunker(80, 0)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	first := chunks[0]
	assert.Equal(t, []string{"Top"}, first.HeadingPath)

	last := chunks[len(chunks)-1]
	assert.Equal(t, []string{"Top", "Nested"}, last.HeadingPath)
}

func TestChunkCodeBlockAtomic(t *testing.T) {
	code := "```go\n" + strings.Repeat("fmt.Println(\"line\")\n", 12) + "```\n"
	doc := "# Code\n\nIntro line.\n\n" + code

	c, err := NewChunker(80, 0)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)

	var codeChunk *Chunk
	for i := range chunks {
		if strings.Contains(chunks[i].Text, "```go") {
			codeChunk = &chunks[i]
		}
	}
	require.NotNil(t, codeChunk)
	assert.True(t, codeChunk.Oversize)
	assert.Contains(t, codeChunk.Text, "```go")
	// The fence is never split across chunks.
	assert.Equal(t, 12, strings.Count(codeChunk.Text, "Println"))
	assert.Equal(t, doc, reassemble(chunks))
}

func TestChunkTableAtomic(t *testing.T) {
	table := "| col a | col b |\n| --- | --- |\n| one | two |\n| three | four |\n"
	doc := "Intro.\n\n" + table

	c, err := NewChunker(30, 0)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)

	var tableChunks int
	for _, ch := range chunks {
		if strings.Contains(ch.Text, "col a") {
			tableChunks++
			assert.True(t, ch.Oversize)
			assert.Contains(t, ch.Text, "three")
		}
	}
	assert.Equal(t, 1, tableChunks)
	assert.Equal(t, doc, reassemble(chunks))
}

func TestChunkOversizedParagraphSplit(t *testing.T) {
	doc := strings.Repeat("A sentence that keeps going. ", 20) + "\n"
	c, err := NewChunker(100, 0)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 100)
		assert.False(t, ch.Oversize)
	}
	assert.Equal(t, doc, reassemble(chunks))
}

func TestChunkUnclosedFence(t *testing.T) {
	doc := "# Broken\n\n```go\nfunc main() {}\n"
	c, err := NewChunker(100, 0)
	require.NoError(t, err)

	_, err = c.Chunk(doc)
	require.Error(t, err)

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, malformed.Line)
}

func TestChunkOverlapSeeding(t *testing.T) {
	doc := "First paragraph of reasonable length here.\n\nSecond paragraph of reasonable length too.\n"
	c, err := NewChunker(50, 12)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		seed := chunks[i].Text[:chunks[i].Overlap]
		assert.True(t, strings.HasSuffix(prev, seed),
			"chunk %d seed must be the tail of chunk %d", i, i-1)
		assert.LessOrEqual(t, chunks[i].Overlap, 12)
	}
	assert.Equal(t, doc, reassemble(chunks))
}
