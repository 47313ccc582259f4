package chunker

import (
	"context"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// sizeStrategy accumulates sequential elements until adding the next one would
// exceed max_characters, with no semantic awareness. An element that fits
// exactly is included. When new_after_characters is set, the chunk also closes
// early once the soft limit is reached.
type sizeStrategy struct{}

func (sizeStrategy) segment(_ context.Context, elements []domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning, error) {
	acc := newAccumulator(cfg, false)

	for _, el := range elements {
		switch el.Type {
		case domain.ElementTypePageBreak:
			continue
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
