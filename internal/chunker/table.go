package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// Tables are never merged with adjacent text. A table that fits the limit
// becomes one table chunk; a larger one splits only at row boundaries,
// preserving row order. Oversized single rows cannot honor the row-boundary
// rule and are segmented best-effort with a content warning instead of
// aborting the document.

const tableCellSeparator = " | "

func serializeTableRow(cells []string) string {
	return strings.Join(cells, tableCellSeparator)
}

func chunkTable(el domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning) {
	rows := el.TableRows
	if len(rows) == 0 {
		return corruptTable(el, cfg)
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = serializeTableRow(row)
	}

	whole := strings.Join(lines, "\n")
	if utf8.RuneCountInString(whole) <= cfg.MaxCharacters {
		d := tableDraft(el, whole, 0, len(rows)-1, false)
		return []draft{d}, nil
	}

	// Repeated header rows are presentation only: RowRange tracks source rows,
	// so concatenating fragment row ranges still yields every row exactly once.
	var header string
	if cfg.RepeatTableHeaders && len(rows) > 1 {
		header = lines[0]
	}

	var (
		drafts []draft
		warns  []domain.ChunkWarning
		cur    []string
		curLen int
		first  int
	)

	flush := func(last int) {
		if len(cur) == 0 {
			return
		}
		drafts = append(drafts, tableDraft(el, strings.Join(cur, "\n"), first, last, false))
		cur = nil
		curLen = 0
	}

	open := func(i int) {
		first = i
		if header != "" && i > 0 {
			cur = []string{header}
			curLen = utf8.RuneCountInString(header)
		}
	}

	for i, line := range lines {
		lineLen := utf8.RuneCountInString(line)

		if lineLen > cfg.MaxCharacters {
			// A single row wider than the limit.
			flush(i - 1)
			for _, f := range splitOversized(line, cfg.MaxCharacters) {
				d := tableDraft(el, f.text, i, i, f.hardCut)
				drafts = append(drafts, d)
			}
			warns = append(warns, domain.ChunkWarning{
				Code:    domain.WarnContentError,
				Message: fmt.Sprintf("table row %d of %s exceeds max_characters and was segmented mid-row", i, el.SourceRef),
			})
			continue
		}

		if len(cur) == 0 {
			open(i)
		} else if curLen+1+lineLen > cfg.MaxCharacters {
			flush(i - 1)
			open(i)
		}

		// Drop the repeated header when it would push the fragment over the limit.
		if len(cur) == 1 && cur[0] == header && curLen+1+lineLen > cfg.MaxCharacters {
			cur = nil
			curLen = 0
		}

		if len(cur) > 0 {
			curLen += 1 + lineLen
		} else {
			curLen = lineLen
		}
		cur = append(cur, line)
	}
	flush(len(rows) - 1)

	return drafts, warns
}

func tableDraft(el domain.Element, text string, first, last int, hardCut bool) draft {
	d := draft{
		text:     text,
		refs:     []string{el.SourceRef},
		isTable:  true,
		rowRange: &domain.RowRange{First: first, Last: last},
		hardCut:  hardCut,
	}
	d.addPage(el.PageNumber)
	return d
}

// corruptTable handles a table element that carries no parsed rows: the
// element is isolated into its own best-effort chunk and flagged rather than
// failing the whole document.
func corruptTable(el domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning) {
	warn := domain.ChunkWarning{
		Code:    domain.WarnContentError,
		Message: fmt.Sprintf("table element %s has no parsed rows; chunked from raw text", el.SourceRef),
	}

	if strings.TrimSpace(el.Text) == "" {
		return nil, []domain.ChunkWarning{warn}
	}

	var drafts []draft
	for _, f := range splitOversized(el.Text, cfg.MaxCharacters) {
		d := draft{
			text:    f.text,
			refs:    []string{el.SourceRef},
			isTable: true,
			hardCut: f.hardCut,
		}
		d.addPage(el.PageNumber)
		drafts = append(drafts, d)
	}
	return drafts, []domain.ChunkWarning{warn}
}
