package domain

import (
	"fmt"
	"time"
)

// RowRange records which rows of a source table a TableChunk contains.
// First and Last are zero-based and inclusive.
type RowRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Chunk is the output unit of a chunking run: a bounded text unit produced
// from document elements, the atomic unit of embedding and retrieval.
// Chunks are superseded, not mutated, on re-chunking: each run produces a new
// generation that atomically replaces the previous one for the document.
type Chunk struct {
	ID                string
	DocumentID        string
	Generation        int64
	SequenceIndex     int
	Text              string
	CharCount         int
	Prefix            string // contextual prefix, stored separately from Text
	SourceElementRefs []string
	PageNumbers       []int
	Metadata          map[string]any
	IsTable           bool
	RowRange          *RowRange
	OverlapCharCount  int // leading characters copied from the previous chunk
	HardCut           bool
	Edited            bool // set only by explicit manual edit, never by the pipeline
	Embedding         []float32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.DocumentID == "" {
		return fmt.Errorf("chunk DocumentID is required")
	}

	if c.Text == "" {
		return fmt.Errorf("chunk Text is required")
	}

	if c.SequenceIndex < 0 {
		return fmt.Errorf("chunk SequenceIndex cannot be negative")
	}

	if c.Generation <= 0 {
		return fmt.Errorf("chunk Generation must be greater than 0")
	}

	if c.IsTable && c.RowRange != nil && c.RowRange.First > c.RowRange.Last {
		return fmt.Errorf("chunk RowRange is inverted")
	}

	return nil
}

// ChunkWarningCode classifies non-fatal anomalies found in a chunk set
type ChunkWarningCode string

const (
	// WarnTooShort flags chunks below the configured minimum length (semantic-context risk)
	WarnTooShort ChunkWarningCode = "too_short"
	// WarnTruncationRisk flags chunks produced by a hard character cut
	WarnTruncationRisk ChunkWarningCode = "truncation_risk"
	// WarnMixedBoundaries flags chunks mixing pages or sections the active strategy should have kept apart
	WarnMixedBoundaries ChunkWarningCode = "mixed_boundaries"
	// WarnContentError flags elements the pipeline could only segment best-effort
	WarnContentError ChunkWarningCode = "content_error"
)

// ChunkWarning is a non-fatal anomaly attached to a chunking run's result,
// surfaced for operator review.
type ChunkWarning struct {
	Code          ChunkWarningCode `json:"code"`
	SequenceIndex int              `json:"sequence_index"`
	Message       string           `json:"message"`
}
