package chunker

import (
	"context"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// pageStrategy starts a new chunk at every page boundary. A page whose content
// exceeds max_characters produces multiple chunks for that single page; content
// from two pages never shares a chunk.
type pageStrategy struct{}

func (pageStrategy) segment(_ context.Context, elements []domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning, error) {
	acc := newAccumulator(cfg, true)

	lastPage := 0
	for _, el := range elements {
		if el.Type == domain.ElementTypePageBreak {
			acc.flushBoundary()
			continue
		}

		if el.PageNumber > 0 {
			if lastPage != 0 && el.PageNumber != lastPage {
				acc.flushBoundary()
			}
			lastPage = el.PageNumber
		}

		switch el.Type {
		case domain.ElementTypeImage:
			acc.noteImage(el)
		case domain.ElementTypeTable:
			acc.addTable(el)
		default:
			acc.addElement(el)
		}
	}

	drafts, warns := acc.close()
	return drafts, warns, nil
}
