// Package chunker implements the document chunking pipeline: strategy-driven
// segmentation of a parsed element stream into size-bounded, metadata-rich,
// traceable chunks ready for embedding and retrieval.
package chunker

import (
	"context"
	"time"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// Pipeline runs the chunking stages for one document: segmentation by the
// configured strategy, overlap threading, metadata annotation, and the final
// quality pass. A run is a pure function of (elements, config) apart from the
// injected similarity and summarization collaborators, so the pipeline can be
// invoked concurrently for different documents with no shared state.
type Pipeline struct {
	scorer    SimilarityScorer
	annotator *Annotator
}

// NewPipeline creates a Pipeline. Both collaborators are optional: without a
// scorer the similarity strategy is rejected, and without a summarizer
// contextual prefixes fall back to enclosing headings only.
func NewPipeline(scorer SimilarityScorer, summarizer Summarizer) *Pipeline {
	return &Pipeline{
		scorer:    scorer,
		annotator: NewAnnotator(summarizer),
	}
}

// RunInput carries everything a chunking run reads. Elements are owned by the
// caller and only read here.
type RunInput struct {
	Document       domain.Document
	Elements       []domain.Element
	Config         domain.ChunkConfig
	Generation     int64
	MetadataFields []domain.MetadataField
	Now            time.Time
}

// Result is one complete generation of chunks plus any non-fatal warnings
// collected along the way.
type Result struct {
	Chunks   []domain.Chunk
	Warnings []domain.ChunkWarning
}

// Run executes the pipeline. Identical input yields a byte-identical chunk
// sequence; an empty element stream yields zero chunks and no error.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*Result, error) {
	if err := domain.ValidateChunkConfig(in.Config); err != nil {
		return nil, err
	}

	if len(in.Elements) == 0 {
		return &Result{}, nil
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	strat, err := strategyFor(in.Config, p.scorer)
	if err != nil {
		return nil, err
	}

	drafts, warns, err := strat.segment(ctx, in.Elements, in.Config)
	if err != nil {
		return nil, err
	}

	drafts = applyOverlap(drafts, in.Config)

	chunks, annotateWarns, err := p.annotator.annotate(ctx, drafts, annotateInput{
		document:   in.Document,
		cfg:        in.Config,
		generation: in.Generation,
		fields:     in.MetadataFields,
		now:        now,
	})
	if err != nil {
		return nil, err
	}
	warns = append(warns, annotateWarns...)

	qualityWarns, err := validateChunks(chunks, in.Config)
	if err != nil {
		return nil, err
	}
	warns = append(warns, qualityWarns...)

	return &Result{Chunks: chunks, Warnings: warns}, nil
}
