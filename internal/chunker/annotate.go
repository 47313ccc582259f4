package chunker

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// Summarizer produces a short human-readable summary of chunk text, used for
// contextual prefixes when no enclosing heading is available. Implementations
// call an external model; the pipeline stays testable without one.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Annotator attaches built-in and custom metadata to chunks and computes the
// optional contextual prefix. The prefix is stored on Chunk.Prefix, never
// concatenated into Chunk.Text, so retrieval and display can treat them
// independently.
type Annotator struct {
	summarizer Summarizer
}

func NewAnnotator(summarizer Summarizer) *Annotator {
	return &Annotator{summarizer: summarizer}
}

type annotateInput struct {
	document   domain.Document
	cfg        domain.ChunkConfig
	generation int64
	fields     []domain.MetadataField
	now        time.Time
}

func (a *Annotator) annotate(ctx context.Context, drafts []draft, in annotateInput) ([]domain.Chunk, []domain.ChunkWarning, error) {
	chunks := make([]domain.Chunk, 0, len(drafts))
	var warns []domain.ChunkWarning

	for i, d := range drafts {
		meta := map[string]any{
			domain.MetadataDocumentName: in.document.Name,
			domain.MetadataUploadDate:   in.document.UploadedAt.UTC().Format(time.RFC3339),
			domain.MetadataSource:       in.document.Source,
		}
		if len(d.pages) > 0 {
			meta[domain.MetadataPageNumbers] = d.pages
		}
		if d.omittedImages > 0 {
			meta[domain.MetadataOmittedImages] = d.omittedImages
		}

		for _, f := range in.fields {
			if f.Scope != domain.MetadataScopeCustom || f.Value == nil {
				continue
			}
			if !f.AppliesToDocument(in.document.ID) {
				continue
			}
			meta[f.Name] = f.Value
		}

		var prefix string
		if in.cfg.ContextualPrefixEnabled {
			p, err := a.buildPrefix(ctx, d)
			if err != nil {
				// Prefix generation is best-effort: a summarization failure
				// degrades to no prefix instead of failing the run.
				warns = append(warns, domain.ChunkWarning{
					Code:          domain.WarnContentError,
					SequenceIndex: i,
					Message:       fmt.Sprintf("contextual prefix skipped: %v", err),
				})
			}
			prefix = p
		}

		// Refs are provenance output, opt-out via config; boundary decisions
		// never depend on them.
		var refs []string
		if in.cfg.IncludeOriginalElements {
			refs = d.refs
		}

		chunks = append(chunks, domain.Chunk{
			DocumentID:        in.document.ID,
			Generation:        in.generation,
			SequenceIndex:     i,
			Text:              d.text,
			CharCount:         utf8.RuneCountInString(d.text),
			Prefix:            prefix,
			SourceElementRefs: refs,
			PageNumbers:       d.pages,
			Metadata:          meta,
			IsTable:           d.isTable,
			RowRange:          d.rowRange,
			OverlapCharCount:  d.overlapChars,
			HardCut:           d.hardCut,
			CreatedAt:         in.now,
			UpdatedAt:         in.now,
		})
	}

	return chunks, warns, nil
}

func (a *Annotator) buildPrefix(ctx context.Context, d draft) (string, error) {
	if d.section != "" {
		return "This chunk covers " + d.section, nil
	}
	if a.summarizer == nil {
		return "", nil
	}
	summary, err := a.summarizer.Summarize(ctx, d.text)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", nil
	}
	return "This chunk covers " + summary, nil
}
