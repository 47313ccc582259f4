package chunker

import (
	"sort"
	"unicode/utf8"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// elementSeparator joins element texts inside one chunk.
const elementSeparator = "\n\n"

// draft is a candidate chunk under construction, before annotation.
type draft struct {
	text          string
	refs          []string
	pages         []int
	section       string
	isTable       bool
	rowRange      *domain.RowRange
	hardCut       bool
	forcedSplit   bool // continuation of a logical unit that was split purely due to size
	overlapChars  int
	omittedImages int
}

func (d *draft) charCount() int {
	return utf8.RuneCountInString(d.text)
}

func (d *draft) addPage(n int) {
	if n <= 0 {
		return
	}
	for _, p := range d.pages {
		if p == n {
			return
		}
	}
	d.pages = append(d.pages, n)
	sort.Ints(d.pages)
}

// accumulator groups sequential elements into drafts under the configured
// size limits. Strategies drive it and decide where the natural boundaries
// are; the accumulator handles the shared size, soft-limit, oversized-element,
// and table machinery.
type accumulator struct {
	cfg domain.ChunkConfig

	// forcedContinuation marks size-driven flushes as forced splits, so a
	// later draft in the same logical unit is overlap-eligible even when
	// overlap_all is off. Strategies whose own boundaries are the size
	// boundaries (size strategy) leave this disabled.
	forcedContinuation bool

	section       string
	cur           *draft
	out           []draft
	warns         []domain.ChunkWarning
	pendingForced bool
	pendingImages int
}

func newAccumulator(cfg domain.ChunkConfig, forcedContinuation bool) *accumulator {
	return &accumulator{
		cfg:                cfg,
		forcedContinuation: forcedContinuation,
	}
}

// currentText returns the text accumulated in the open draft, if any.
func (a *accumulator) currentText() string {
	if a.cur == nil {
		return ""
	}
	return a.cur.text
}

func (a *accumulator) fits(n int) bool {
	if a.cur == nil {
		return n <= a.cfg.MaxCharacters
	}
	return a.cur.charCount()+utf8.RuneCountInString(elementSeparator)+n <= a.cfg.MaxCharacters
}

// addElement appends a text-bearing element, closing the open draft first when
// the element would not fit. An element that fits exactly is included.
func (a *accumulator) addElement(el domain.Element) {
	n := el.CharCount()
	if n == 0 {
		return
	}

	if n > a.cfg.MaxCharacters {
		a.addOversized(el)
		return
	}

	if !a.fits(n) {
		a.flushForced()
	}

	if a.cur == nil {
		a.openDraft()
		a.cur.text = el.Text
	} else {
		a.cur.text += elementSeparator + el.Text
	}
	a.cur.refs = append(a.cur.refs, el.SourceRef)
	a.cur.addPage(el.PageNumber)

	// Soft limit: close early even though more would fit.
	if a.cfg.NewAfterCharacters > 0 && a.cur.charCount() >= a.cfg.NewAfterCharacters {
		a.flushForced()
	}
}

// addOversized routes a single element larger than max_characters through the
// splitter. Every fragment after the first is a forced continuation.
func (a *accumulator) addOversized(el domain.Element) {
	a.flushForced()
	for i, f := range splitOversized(el.Text, a.cfg.MaxCharacters) {
		d := draft{
			text:        f.text,
			refs:        []string{el.SourceRef},
			section:     a.section,
			hardCut:     f.hardCut,
			forcedSplit: i > 0 || a.takePendingForced(),
		}
		d.addPage(el.PageNumber)
		a.attachPendingImages(&d)
		a.out = append(a.out, d)
	}
	if a.forcedContinuation {
		a.pendingForced = true
	}
}

// addTable closes the open draft and emits the table as standalone drafts.
func (a *accumulator) addTable(el domain.Element) {
	a.flushBoundary()
	drafts, warns := chunkTable(el, a.cfg)
	for i := range drafts {
		drafts[i].section = a.section
		a.attachPendingImages(&drafts[i])
	}
	a.out = append(a.out, drafts...)
	a.warns = append(a.warns, warns...)
}

// noteImage records an omitted image on the nearest chunk for traceability.
func (a *accumulator) noteImage(el domain.Element) {
	if a.cur != nil {
		a.cur.addPage(el.PageNumber)
		a.cur.omittedImages++
		return
	}
	a.pendingImages++
}

// flushForced closes the open draft because of a size or soft limit; the next
// draft in the same logical unit counts as a forced continuation.
func (a *accumulator) flushForced() {
	if a.cur == nil {
		return
	}
	a.out = append(a.out, *a.cur)
	a.cur = nil
	if a.forcedContinuation {
		a.pendingForced = true
	}
}

// flushBoundary closes the open draft at a natural strategy boundary
// (heading change, page change, similarity break).
func (a *accumulator) flushBoundary() {
	if a.cur != nil {
		a.out = append(a.out, *a.cur)
		a.cur = nil
	}
	a.pendingForced = false
}

func (a *accumulator) openDraft() {
	a.cur = &draft{
		section:     a.section,
		forcedSplit: a.takePendingForced(),
	}
	a.attachPendingImages(a.cur)
}

func (a *accumulator) takePendingForced() bool {
	forced := a.pendingForced
	a.pendingForced = false
	return forced
}

func (a *accumulator) attachPendingImages(d *draft) {
	if a.pendingImages > 0 {
		d.omittedImages += a.pendingImages
		a.pendingImages = 0
	}
}

// close flushes any open draft and returns the accumulated result.
func (a *accumulator) close() ([]draft, []domain.ChunkWarning) {
	a.flushBoundary()
	return a.out, a.warns
}
