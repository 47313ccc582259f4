package chunker

import (
	"fmt"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// validateChunks is the final quality pass. It emits warnings, not failures,
// for chunks an operator should review, and returns an error only when the
// max-character invariant itself is breached, which indicates a strategy bug.
func validateChunks(chunks []domain.Chunk, cfg domain.ChunkConfig) ([]domain.ChunkWarning, error) {
	var warns []domain.ChunkWarning

	for _, c := range chunks {
		if c.CharCount > cfg.MaxCharacters {
			return nil, domain.NewDomainError(domain.ErrCodeInternalError,
				fmt.Sprintf("chunk %d exceeds max_characters (%d > %d)", c.SequenceIndex, c.CharCount, cfg.MaxCharacters))
		}

		if cfg.MinCharacters > 0 && c.CharCount < cfg.MinCharacters {
			warns = append(warns, domain.ChunkWarning{
				Code:          domain.WarnTooShort,
				SequenceIndex: c.SequenceIndex,
				Message:       fmt.Sprintf("chunk is %d characters, below the %d minimum", c.CharCount, cfg.MinCharacters),
			})
		}

		if c.HardCut {
			warns = append(warns, domain.ChunkWarning{
				Code:          domain.WarnTruncationRisk,
				SequenceIndex: c.SequenceIndex,
				Message:       "chunk was produced by a hard character cut with no break point",
			})
		}

		if crossesPageIsolation(c, cfg) {
			warns = append(warns, domain.ChunkWarning{
				Code:          domain.WarnMixedBoundaries,
				SequenceIndex: c.SequenceIndex,
				Message:       fmt.Sprintf("chunk spans pages %v under a strategy that isolates pages", c.PageNumbers),
			})
		}
	}

	return warns, nil
}

// crossesPageIsolation reports whether a chunk mixes pages the active strategy
// should have kept apart. It should never fire under a correct strategy
// implementation.
func crossesPageIsolation(c domain.Chunk, cfg domain.ChunkConfig) bool {
	if len(c.PageNumbers) <= 1 {
		return false
	}
	switch cfg.Strategy {
	case domain.StrategyPage:
		return true
	case domain.StrategyHeading:
		return !cfg.MultipageSections
	}
	return false
}
