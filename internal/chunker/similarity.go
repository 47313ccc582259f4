package chunker

import (
	"context"
	"fmt"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// similarityStrategy groups sequential elements by semantic relatedness: a new
// chunk starts when the relatedness between the accumulated chunk text and the
// next element falls below the threshold. The comparison is inclusive, so an
// element scoring exactly at the threshold stays in the group. Page and
// heading boundaries are ignored.
//
// Scoring calls the external embedding model per adjacent pair, so this is the
// one strategy that honors cooperative cancellation between comparisons.
type similarityStrategy struct {
	scorer SimilarityScorer
}

func (s similarityStrategy) segment(ctx context.Context, elements []domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning, error) {
	acc := newAccumulator(cfg, true)

	for _, el := range elements {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		switch el.Type {
		case domain.ElementTypePageBreak:
			continue
		case domain.ElementTypeImage:
			acc.noteImage(el)
			continue
		case domain.ElementTypeTable:
			acc.addTable(el)
			continue
		}

		if el.CharCount() == 0 {
			continue
		}

		accumulated := acc.currentText()
		if accumulated == "" {
			acc.addElement(el)
			continue
		}

		score, err := s.scorer.Score(ctx, accumulated, el.Text)
		if err != nil {
			// An ambiguous comparison fails the run; a partial grouping must
			// never be published.
			return nil, nil, fmt.Errorf("similarity scoring failed for element %s: %w", el.SourceRef, err)
		}

		if score < cfg.SimilarityThreshold {
			acc.flushBoundary()
		}
		acc.addElement(el)
	}

	drafts, warns := acc.close()
	return drafts, warns, nil
}
