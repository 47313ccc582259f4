package chunker

import (
	"context"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// SimilarityScorer scores the semantic relatedness between the text already
// accumulated in the current chunk and the next element. Implementations call
// the external embedding model and own their retry policy; a returned error
// fails the whole chunking run rather than silently skipping a comparison.
type SimilarityScorer interface {
	Score(ctx context.Context, accumulated, next string) (float64, error)
}

// strategy is one segmentation algorithm. All strategies share the same
// contract: drafts come out fully ordered, none exceeds max_characters, and
// every draft traces back to at least one source element.
type strategy interface {
	segment(ctx context.Context, elements []domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning, error)
}

func strategyFor(cfg domain.ChunkConfig, scorer SimilarityScorer) (strategy, error) {
	switch cfg.Strategy {
	case domain.StrategySize:
		return sizeStrategy{}, nil
	case domain.StrategyHeading:
		return headingStrategy{}, nil
	case domain.StrategyPage:
		return pageStrategy{}, nil
	case domain.StrategySimilarity:
		if scorer == nil {
			return nil, domain.NewDomainError(domain.ErrCodeInvalidOperation, "similarity strategy requires an embedding provider")
		}
		return similarityStrategy{scorer: scorer}, nil
	}
	return nil, domain.NewDomainError(domain.ErrCodeValidation, "unknown chunking strategy: "+string(cfg.Strategy))
}
