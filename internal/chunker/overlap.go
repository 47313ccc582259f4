package chunker

import "github.com/harystyleseze/privexbot-kb/internal/domain"

// applyOverlap threads trailing characters of each chunk into the start of its
// successor as a tracked region, so retrieval scoring can discount it. The
// hard ceiling always wins: overlap is truncated to whatever room the
// receiving chunk has left. Table chunks never give or receive overlap, which
// would duplicate partial rows.
//
// With overlap_all off, overlap applies only across forced splits, where one
// logical unit was divided purely due to size; natural strategy boundaries
// keep their topic isolation.
func applyOverlap(drafts []draft, cfg domain.ChunkConfig) []draft {
	if cfg.OverlapCharacters <= 0 {
		return drafts
	}

	for i := 1; i < len(drafts); i++ {
		prev := &drafts[i-1]
		cur := &drafts[i]

		if prev.isTable || cur.isTable {
			continue
		}
		if !cfg.OverlapAll && !cur.forcedSplit {
			continue
		}

		// The previous draft's own overlap was prepended, so its trailing
		// characters are still original text.
		prevRunes := []rune(prev.text)
		n := cfg.OverlapCharacters
		if n > len(prevRunes) {
			n = len(prevRunes)
		}
		if room := cfg.MaxCharacters - cur.charCount(); n > room {
			n = room
		}
		if n <= 0 {
			continue
		}

		cur.text = string(prevRunes[len(prevRunes)-n:]) + cur.text
		cur.overlapChars = n
	}

	return drafts
}
