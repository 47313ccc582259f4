package chunker

import (
	"context"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// headingStrategy starts a new chunk at every title element. Everything until
// the next title belongs to that section, subject to max_characters: an
// oversized section still splits, but the fragments stay tagged to the same
// section. Sections shorter than combine_under_characters merge with the next
// section. When multipage_sections is off, a page boundary also closes the
// chunk mid-section.
type headingStrategy struct{}

// section is a heading plus the elements that follow it.
type section struct {
	heading  string
	elements []domain.Element
	chars    int
}

func (headingStrategy) segment(_ context.Context, elements []domain.Element, cfg domain.ChunkConfig) ([]draft, []domain.ChunkWarning, error) {
	sections := collectSections(elements)
	sections = combineSections(sections, cfg)

	acc := newAccumulator(cfg, true)

	for _, s := range sections {
		acc.flushBoundary()
		acc.section = s.heading

		lastPage := 0
		for _, el := range s.elements {
			if !cfg.MultipageSections && el.PageNumber > 0 {
				if lastPage != 0 && el.PageNumber != lastPage {
					acc.flushBoundary()
				}
				lastPage = el.PageNumber
			}

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
	}

	drafts, warns := acc.close()
	return drafts, warns, nil
}

// collectSections groups elements into heading-delimited sections. Elements
// before the first title form an untitled leading section.
func collectSections(elements []domain.Element) []section {
	var sections []section
	cur := section{}

	for _, el := range elements {
		if el.Type == domain.ElementTypePageBreak {
			continue
		}
		if el.Type == domain.ElementTypeTitle && (len(cur.elements) > 0 || cur.heading != "") {
			sections = append(sections, cur)
			cur = section{}
		}
		if el.Type == domain.ElementTypeTitle && cur.heading == "" {
			cur.heading = el.Text
		}
		cur.elements = append(cur.elements, el)
		if el.IsTextBearing() {
			cur.chars += el.CharCount()
		}
	}
	if len(cur.elements) > 0 {
		sections = append(sections, cur)
	}

	return sections
}

// combineSections merges a section shorter than combine_under_characters with
// its successor, up to max_characters. The merge is pairwise, not cascading,
// so two tiny sections form one chunk without swallowing the section after
// them.
func combineSections(sections []section, cfg domain.ChunkConfig) []section {
	if cfg.CombineUnderCharacters <= 0 {
		return sections
	}

	var out []section
	for i := 0; i < len(sections); i++ {
		s := sections[i]
		if i+1 < len(sections) &&
			s.chars < cfg.CombineUnderCharacters &&
			s.chars+sections[i+1].chars <= cfg.MaxCharacters {
			next := sections[i+1]
			if s.heading == "" {
				s.heading = next.heading
			}
			s.elements = append(s.elements, next.elements...)
			s.chars += next.chars
			i++
		}
		out = append(out, s)
	}

	return out
}
