package chunker

import "unicode"

// fragment is one piece of an oversized element's text.
type fragment struct {
	text    string
	hardCut bool
}

// splitOversized splits text into fragments of at most maxChars runes each,
// preferring paragraph breaks, then line breaks, then sentence-ending
// punctuation, then whitespace, only falling back to a hard character cut
// when no break point exists inside the window. Concatenating the fragments
// reproduces the input exactly: no characters are dropped or duplicated.
func splitOversized(text string, maxChars int) []fragment {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []fragment{{text: text}}
	}

	var frags []fragment
	start := 0
	for start < len(runes) {
		remaining := len(runes) - start
		if remaining <= maxChars {
			frags = append(frags, fragment{text: string(runes[start:])})
			break
		}

		end := start + maxChars
		cut, hard := findCut(runes, start, end)
		frags = append(frags, fragment{text: string(runes[start:cut]), hardCut: hard})
		start = cut
	}

	return frags
}

// findCut scans the window [start, end] backwards for the best break point,
// returning the cut index and whether it had to fall back to a hard cut.
func findCut(runes []rune, start, end int) (int, bool) {
	// Paragraph break: cut right after a blank line.
	for i := end; i > start+1; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i, false
		}
	}

	// Line break.
	for i := end; i > start; i-- {
		if runes[i-1] == '\n' {
			return i, false
		}
	}

	// Sentence-ending punctuation followed by whitespace.
	for i := end; i > start; i-- {
		if isSentenceEnd(runes[i-1]) && i < len(runes) && unicode.IsSpace(runes[i]) {
			return i, false
		}
	}

	// Any whitespace.
	for i := end; i > start; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i, false
		}
	}

	// No break point inside the window, e.g. one very long token.
	return end, true
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
