package chunker

import (
	"context"
	"errors"
	"testing"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedScorer returns a fixed sequence of scores, one per comparison.
type scriptedScorer struct {
	scores []float64
	calls  int
	err    error
}

func (s *scriptedScorer) Score(_ context.Context, _, _ string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.calls >= len(s.scores) {
		return 1, nil
	}
	score := s.scores[s.calls]
	s.calls++
	return score, nil
}

func TestSimilarityStrategyGroupsRelatedElements(t *testing.T) {
	elements := []domain.Element{
		paragraph("p1", "cats are mammals", 1),
		paragraph("p2", "dogs are mammals", 1),
		paragraph("p3", "kettles boil water", 1),
	}
	scorer := &scriptedScorer{scores: []float64{0.9, 0.2}}

	cfg := domain.ChunkConfig{Strategy: domain.StrategySimilarity, MaxCharacters: 1000, SimilarityThreshold: 0.5}
	drafts, _, err := similarityStrategy{scorer: scorer}.segment(context.Background(), elements, cfg)

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "cats are mammals\n\ndogs are mammals", drafts[0].text)
	assert.Equal(t, "kettles boil water", drafts[1].text)
	assert.Equal(t, 2, scorer.calls)
}

func TestSimilarityStrategyThresholdIsInclusive(t *testing.T) {
	elements := []domain.Element{
		paragraph("p1", "one", 1),
		paragraph("p2", "two", 1),
		paragraph("p3", "three", 1),
	}

	// All comparisons score exactly 0.5.
	at := &scriptedScorer{scores: []float64{0.5, 0.5}}
	cfg := domain.ChunkConfig{MaxCharacters: 1000, SimilarityThreshold: 0.5}
	drafts, _, err := similarityStrategy{scorer: at}.segment(context.Background(), elements, cfg)
	require.NoError(t, err)
	assert.Len(t, drafts, 1, "score == threshold keeps the element in the group")

	// Raising the threshold just above the score splits every boundary.
	above := &scriptedScorer{scores: []float64{0.5, 0.5}}
	cfg.SimilarityThreshold = 0.51
	drafts, _, err = similarityStrategy{scorer: above}.segment(context.Background(), elements, cfg)
	require.NoError(t, err)
	assert.Len(t, drafts, 3)
}

func TestSimilarityStrategyScorerErrorFailsRun(t *testing.T) {
	elements := []domain.Element{
		paragraph("p1", "one", 1),
		paragraph("p2", "two", 1),
	}
	scorer := &scriptedScorer{err: errors.New("embedding service unavailable")}

	cfg := domain.ChunkConfig{MaxCharacters: 1000, SimilarityThreshold: 0.5}
	drafts, _, err := similarityStrategy{scorer: scorer}.segment(context.Background(), elements, cfg)

	require.Error(t, err)
	assert.Nil(t, drafts, "no partial grouping is returned")
	assert.Contains(t, err.Error(), "p2")
}

func TestSimilarityStrategyHonorsCancellation(t *testing.T) {
	elements := []domain.Element{
		paragraph("p1", "one", 1),
		paragraph("p2", "two", 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := domain.ChunkConfig{MaxCharacters: 1000, SimilarityThreshold: 0.5}
	_, _, err := similarityStrategy{scorer: &scriptedScorer{}}.segment(ctx, elements, cfg)

	require.ErrorIs(t, err, context.Canceled)
}

func TestSimilarityStrategySkipsTablesAndImagesForScoring(t *testing.T) {
	elements := []domain.Element{
		paragraph("p1", "text before", 1),
		tableElement([][]string{{"a", "b"}}),
		{Type: domain.ElementTypeImage, PageNumber: 1, SourceRef: "img1"},
		paragraph("p2", "text after", 1),
	}
	scorer := &scriptedScorer{scores: []float64{0.9}}

	cfg := domain.ChunkConfig{MaxCharacters: 1000, SimilarityThreshold: 0.5}
	drafts, _, err := similarityStrategy{scorer: scorer}.segment(context.Background(), elements, cfg)

	require.NoError(t, err)
	require.Len(t, drafts, 3)
	assert.True(t, drafts[1].isTable)
}
