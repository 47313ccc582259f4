package domain

// ChunkStrategy selects the segmentation algorithm used for a chunking run
type ChunkStrategy string

const (
	StrategySize       ChunkStrategy = "size"
	StrategyHeading    ChunkStrategy = "heading"
	StrategyPage       ChunkStrategy = "page"
	StrategySimilarity ChunkStrategy = "similarity"
)

// ChunkConfig controls a single chunking invocation. It is persisted alongside
// the document so a re-chunk reuses the exact settings of the last run unless
// the caller supplies new ones.
type ChunkConfig struct {
	Strategy                ChunkStrategy `json:"strategy"`
	MaxCharacters           int           `json:"max_characters"`
	NewAfterCharacters      int           `json:"new_after_characters,omitempty"`
	CombineUnderCharacters  int           `json:"combine_under_characters,omitempty"`
	OverlapCharacters       int           `json:"overlap_characters,omitempty"`
	OverlapAll              bool          `json:"overlap_all,omitempty"`
	MultipageSections       bool          `json:"multipage_sections,omitempty"`
	SimilarityThreshold     float64       `json:"similarity_threshold,omitempty"`
	IncludeOriginalElements bool          `json:"include_original_elements"`
	ContextualPrefixEnabled bool          `json:"contextual_prefix_enabled,omitempty"`
	MinCharacters           int           `json:"min_characters,omitempty"`
	RepeatTableHeaders      bool          `json:"repeat_table_headers,omitempty"`
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Strategy:                StrategySize,
		MaxCharacters:           1200,
		OverlapCharacters:       0,
		IncludeOriginalElements: true,
	}
}

// ValidateChunkConfig rejects invalid configurations before any processing
// begins. A config error is never partially applied.
func ValidateChunkConfig(c ChunkConfig) error {
	if !isValidChunkStrategy(c.Strategy) {
		return NewDomainError(ErrCodeValidation, "unknown chunking strategy: "+string(c.Strategy))
	}

	if c.MaxCharacters <= 0 {
		return NewDomainError(ErrCodeValidation, "max_characters must be greater than 0")
	}

	if c.NewAfterCharacters < 0 || c.NewAfterCharacters > c.MaxCharacters {
		return NewDomainError(ErrCodeValidation, "new_after_characters must be between 0 and max_characters")
	}

	if c.CombineUnderCharacters < 0 || c.CombineUnderCharacters > c.MaxCharacters {
		return NewDomainError(ErrCodeValidation, "combine_under_characters must be between 0 and max_characters")
	}

	if c.OverlapCharacters < 0 || c.OverlapCharacters >= c.MaxCharacters {
		return NewDomainError(ErrCodeValidation, "overlap_characters must be less than max_characters")
	}

	if c.Strategy == StrategySimilarity {
		if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
			return NewDomainError(ErrCodeValidation, "similarity_threshold must be between 0.0 and 1.0")
		}
	}

	if c.MinCharacters < 0 {
		return NewDomainError(ErrCodeValidation, "min_characters cannot be negative")
	}

	return nil
}

// isValidChunkStrategy checks if a ChunkStrategy is valid
func isValidChunkStrategy(s ChunkStrategy) bool {
	switch s {
	case StrategySize, StrategyHeading, StrategyPage, StrategySimilarity:
		return true
	}
	return false
}
