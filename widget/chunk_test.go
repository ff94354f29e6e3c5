package widget

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunksShortTextSingleChunk(t *testing.T) {
	chunks := splitChunks("Hello there.", 200)
	assert.Equal(t, []string{"Hello there."}, chunks)
}

func TestSplitChunksEmpty(t *testing.T) {
	assert.Nil(t, splitChunks("", 200))
	assert.Nil(t, splitChunks("   ", 200))
}

func TestSplitChunksAtSentenceBoundaries(t *testing.T) {
	text := "First sentence goes here. Second sentence goes here! Third sentence goes here?"
	chunks := splitChunks(text, 30)

	require.Len(t, chunks, 3)
	assert.Equal(t, "First sentence goes here.", chunks[0])
	assert.Equal(t, "Second sentence goes here!", chunks[1])
	assert.Equal(t, "Third sentence goes here?", chunks[2])
}

func TestSplitChunksPacksSentences(t *testing.T) {
	text := "One. Two. Three. Four."
	chunks := splitChunks(text, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two.", chunks[0])
	assert.Equal(t, "Three.", chunks[1])
	assert.Equal(t, "Four.", chunks[2])
}

func TestSplitChunksRespectsLimit(t *testing.T) {
	text := strings.Repeat("A perfectly ordinary sentence. ", 40)
	for _, chunk := range splitChunks(text, 80) {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 80)
	}
}

func TestSplitChunksLongSentenceSplitsAtWords(t *testing.T) {
	text := "word " + strings.Repeat("word ", 30) + "word"
	chunks := splitChunks(text, 20)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 20)
		assert.False(t, strings.HasPrefix(chunk, " "))
	}
	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestSplitChunksHardSplitsGiantWord(t *testing.T) {
	word := strings.Repeat("x", 55)
	chunks := splitChunks("Short intro sentence to push over the limit. "+word, 20)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 20)
	}
	assert.Equal(t, word, strings.Join(chunks[len(chunks)-3:], ""))
}

func TestSplitChunksKeepsClosingQuotes(t *testing.T) {
	text := `He said "stop." Then he left without another word at all.`
	chunks := splitChunks(text, 20)

	require.NotEmpty(t, chunks)
	assert.Equal(t, `He said "stop."`, chunks[0])
}

func TestSplitChunksPreservesOrder(t *testing.T) {
	text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five."
	joined := strings.Join(splitChunks(text, 25), " ")
	assert.Equal(t, text, joined)
}
