package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverlapPrependsTrailingCharacters(t *testing.T) {
	drafts := []draft{
		{text: "the quick brown fox"},
		{text: "jumps over the lazy dog"},
	}

	cfg := domain.ChunkConfig{MaxCharacters: 100, OverlapCharacters: 9, OverlapAll: true}
	out := applyOverlap(drafts, cfg)

	require.Len(t, out, 2)
	assert.Equal(t, "brown foxjumps over the lazy dog", out[1].text)
	assert.Equal(t, 9, out[1].overlapChars)
	assert.Equal(t, 0, out[0].overlapChars)
}

func TestApplyOverlapTruncatesToHardCeiling(t *testing.T) {
	receiver := strings.Repeat("b", 95)
	drafts := []draft{
		{text: strings.Repeat("a", 60)},
		{text: receiver},
	}

	cfg := domain.ChunkConfig{MaxCharacters: 100, OverlapCharacters: 50, OverlapAll: true}
	out := applyOverlap(drafts, cfg)

	assert.Equal(t, 100, utf8.RuneCountInString(out[1].text), "overlap never pushes a chunk past the ceiling")
	assert.Equal(t, 5, out[1].overlapChars)
	assert.Equal(t, strings.Repeat("a", 5)+receiver, out[1].text)
}

func TestApplyOverlapSkipsChunkAlreadyAtCeiling(t *testing.T) {
	full := strings.Repeat("b", 100)
	drafts := []draft{
		{text: strings.Repeat("a", 60)},
		{text: full},
	}

	cfg := domain.ChunkConfig{MaxCharacters: 100, OverlapCharacters: 50, OverlapAll: true}
	out := applyOverlap(drafts, cfg)

	assert.Equal(t, full, out[1].text)
	assert.Equal(t, 0, out[1].overlapChars)
}

func TestApplyOverlapForcedSplitsOnlyWhenOverlapAllOff(t *testing.T) {
	drafts := []draft{
		{text: "section one text"},
		{text: "continuation of one", forcedSplit: true},
		{text: "section two text"},
	}

	cfg := domain.ChunkConfig{MaxCharacters: 100, OverlapCharacters: 4, OverlapAll: false}
	out := applyOverlap(drafts, cfg)

	assert.Equal(t, "textcontinuation of one", out[1].text, "forced continuation receives overlap")
	assert.Equal(t, 4, out[1].overlapChars)
	assert.Equal(t, "section two text", out[2].text, "natural boundary keeps topic isolation")
	assert.Equal(t, 0, out[2].overlapChars)
}

func TestApplyOverlapSkipsTables(t *testing.T) {
	drafts := []draft{
		{text: "prose before"},
		{text: "a | b\nc | d", isTable: true},
		{text: "prose after"},
	}

	cfg := domain.ChunkConfig{MaxCharacters: 100, OverlapCharacters: 5, OverlapAll: true}
	out := applyOverlap(drafts, cfg)

	assert.Equal(t, "a | b\nc | d", out[1].text, "tables never receive overlap")
	assert.Equal(t, "prose after", out[2].text, "tables never give overlap")
}

func TestApplyOverlapShortPredecessorGivesAllItHas(t *testing.T) {
	drafts := []draft{
		{text: "abc"},
		{text: "defghi"},
	}

	cfg := domain.ChunkConfig{MaxCharacters: 100, OverlapCharacters: 10, OverlapAll: true}
	out := applyOverlap(drafts, cfg)

	assert.Equal(t, "abcdefghi", out[1].text)
	assert.Equal(t, 3, out[1].overlapChars)
}

func TestApplyOverlapDisabledByZeroCharacters(t *testing.T) {
	drafts := []draft{
		{text: "one"},
		{text: "two"},
	}

	out := applyOverlap(drafts, domain.ChunkConfig{MaxCharacters: 100, OverlapAll: true})

	assert.Equal(t, "two", out[1].text)
}
