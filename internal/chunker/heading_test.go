package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadingStrategyStartsChunkAtEveryHeading(t *testing.T) {
	elements := []domain.Element{
		title("t1", "Introduction", 1),
		paragraph("p1", "intro body", 1),
		title("t2", "Details", 1),
		paragraph("p2", "details body", 1),
	}

	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, domain.ChunkConfig{MaxCharacters: 1000})

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Introduction\n\nintro body", drafts[0].text)
	assert.Equal(t, "Details\n\ndetails body", drafts[1].text)
	assert.Equal(t, "Introduction", drafts[0].section)
	assert.Equal(t, "Details", drafts[1].section)
}

func TestHeadingStrategyCombinesShortSections(t *testing.T) {
	// Three consecutive headed sections of 50, 60, and 500 characters with
	// max_characters=1000 and combine_under_characters=200: the first two
	// merge (110 <= 200) and the third stays separate, giving exactly 2 chunks.
	elements := []domain.Element{
		title("t1", strings.Repeat("a", 10), 1),
		paragraph("p1", strings.Repeat("b", 40), 1),
		title("t2", strings.Repeat("c", 10), 1),
		paragraph("p2", strings.Repeat("d", 50), 1),
		title("t3", strings.Repeat("e", 10), 1),
		paragraph("p3", strings.Repeat("f", 490), 1),
	}

	cfg := domain.ChunkConfig{MaxCharacters: 1000, CombineUnderCharacters: 200}
	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, cfg)

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, []string{"t1", "p1", "t2", "p2"}, drafts[0].refs)
	assert.Equal(t, []string{"t3", "p3"}, drafts[1].refs)
}

func TestHeadingStrategyCombineDoesNotCascade(t *testing.T) {
	// Merging is pairwise: two tiny sections merge, the third starts fresh.
	elements := []domain.Element{
		title("t1", "A", 1),
		paragraph("p1", "aa", 1),
		title("t2", "B", 1),
		paragraph("p2", "bb", 1),
		title("t3", "C", 1),
		paragraph("p3", "cc", 1),
	}

	cfg := domain.ChunkConfig{MaxCharacters: 1000, CombineUnderCharacters: 100}
	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, cfg)

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, []string{"t1", "p1", "t2", "p2"}, drafts[0].refs)
	assert.Equal(t, []string{"t3", "p3"}, drafts[1].refs)
}

func TestHeadingStrategyOversizedSectionstaysTaggedToSection(t *testing.T) {
	elements := []domain.Element{
		title("t1", "Long Section", 1),
		paragraph("p1", strings.Repeat("text ", 100), 1), // 500 chars
	}

	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, domain.ChunkConfig{MaxCharacters: 200})

	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)
	for _, d := range drafts {
		assert.Equal(t, "Long Section", d.section, "split fragments remain tagged to the section")
		assert.LessOrEqual(t, d.charCount(), 200)
	}
	for i, d := range drafts {
		if i > 0 {
			assert.True(t, d.forcedSplit, "mid-section size splits are forced")
		}
	}
}

func TestHeadingStrategyPageBoundaryClosesChunkWhenMultipageOff(t *testing.T) {
	elements := []domain.Element{
		title("t1", "Spanning Section", 1),
		paragraph("p1", "on page one", 1),
		paragraph("p2", "on page two", 2),
	}

	cfg := domain.ChunkConfig{MaxCharacters: 1000, MultipageSections: false}
	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, cfg)

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, []int{1}, drafts[0].pages)
	assert.Equal(t, []int{2}, drafts[1].pages)
	assert.Equal(t, "Spanning Section", drafts[1].section)
}

func TestHeadingStrategyMultipageSectionsSpanPages(t *testing.T) {
	elements := []domain.Element{
		title("t1", "Spanning Section", 1),
		paragraph("p1", "on page one", 1),
		paragraph("p2", "on page two", 2),
	}

	cfg := domain.ChunkConfig{MaxCharacters: 1000, MultipageSections: true}
	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, cfg)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, []int{1, 2}, drafts[0].pages)
}

func TestHeadingStrategyUntitledLeadingContent(t *testing.T) {
	elements := []domain.Element{
		paragraph("p0", "preamble before any heading", 1),
		title("t1", "First Heading", 1),
		paragraph("p1", "body", 1),
	}

	drafts, _, err := headingStrategy{}.segment(context.Background(), elements, domain.ChunkConfig{MaxCharacters: 1000})

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "preamble before any heading", drafts[0].text)
	assert.Equal(t, "", drafts[0].section)
	assert.Equal(t, "First Heading", drafts[1].section)
}
