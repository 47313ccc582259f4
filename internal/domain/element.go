package domain

import (
	"fmt"
	"unicode/utf8"
)

// ElementType represents the structural type of a parsed document element
type ElementType string

const (
	ElementTypeTitle     ElementType = "title"
	ElementTypeParagraph ElementType = "paragraph"
	ElementTypeTable     ElementType = "table"
	ElementTypeImage     ElementType = "image"
	ElementTypePageBreak ElementType = "page_break"
)

// Element is an atomic unit of a parsed document. Elements are produced once
// per document ingestion by the external parsers and are read-only inputs to
// the chunking pipeline.
type Element struct {
	Type       ElementType `json:"type"`
	Text       string      `json:"text,omitempty"`
	PageNumber int         `json:"page_number"`
	TableRows  [][]string  `json:"table_rows,omitempty"`
	SourceRef  string      `json:"source_ref"`
}

// IsTextBearing returns true for element types that carry chunkable text
func (e Element) IsTextBearing() bool {
	switch e.Type {
	case ElementTypeTitle, ElementTypeParagraph:
		return true
	}
	return false
}

// CharCount returns the number of characters (runes) in the element's text
func (e Element) CharCount() int {
	return utf8.RuneCountInString(e.Text)
}

// ValidateElement validates an Element instance
func ValidateElement(e Element) error {
	if !isValidElementType(e.Type) {
		return fmt.Errorf("element Type is invalid: %s", e.Type)
	}

	if e.SourceRef == "" {
		return fmt.Errorf("element SourceRef is required")
	}

	if e.PageNumber < 0 {
		return fmt.Errorf("element PageNumber cannot be negative")
	}

	if e.Type == ElementTypeTable && len(e.TableRows) == 0 && e.Text == "" {
		return fmt.Errorf("table element has neither rows nor text")
	}

	return nil
}

// isValidElementType checks if an ElementType is valid
func isValidElementType(t ElementType) bool {
	switch t {
	case ElementTypeTitle, ElementTypeParagraph, ElementTypeTable,
		ElementTypeImage, ElementTypePageBreak:
		return true
	}
	return false
}
