package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents a document's position in the chunking lifecycle
type DocumentStatus string

const (
	DocumentStatusUnchunked  DocumentStatus = "unchunked"
	DocumentStatusChunking   DocumentStatus = "chunking"
	DocumentStatusChunked    DocumentStatus = "chunked"
	DocumentStatusRechunking DocumentStatus = "rechunking"
	DocumentStatusDeleted    DocumentStatus = "deleted"
)

// Document represents an ingested knowledge-base document. The raw bytes and
// the parsers that turn them into an element stream live outside this service;
// the document records where the parsed stream is stored and which chunk
// generation is currently authoritative.
type Document struct {
	ID          string
	WorkspaceID string
	Name        string
	Source      string // origin of the document (upload, url, integration)
	Status      DocumentStatus
	Generation  int64 // latest published chunk generation, 0 before first run
	Config      ChunkConfig
	ElementKey  string // storage key of the parsed element stream
	UploadedAt  time.Time
	UpdatedAt   time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, workspaceID, name, source, elementKey string, uploadedAt time.Time) *Document {
	return &Document{
		ID:          id,
		WorkspaceID: workspaceID,
		Name:        name,
		Source:      source,
		Status:      DocumentStatusUnchunked,
		Generation:  0,
		Config:      DefaultChunkConfig(),
		ElementKey:  elementKey,
		UploadedAt:  uploadedAt,
		UpdatedAt:   uploadedAt,
	}
}

// CanTransition reports whether the chunking lifecycle allows moving a
// document from its current status to the target status.
func (d *Document) CanTransition(target DocumentStatus) bool {
	switch d.Status {
	case DocumentStatusUnchunked:
		return target == DocumentStatusChunking || target == DocumentStatusDeleted
	case DocumentStatusChunking:
		return target == DocumentStatusChunked || target == DocumentStatusUnchunked || target == DocumentStatusDeleted
	case DocumentStatusChunked:
		return target == DocumentStatusRechunking || target == DocumentStatusDeleted
	case DocumentStatusRechunking:
		return target == DocumentStatusChunked || target == DocumentStatusDeleted
	case DocumentStatusDeleted:
		return false
	}
	return false
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.WorkspaceID == "" {
		return fmt.Errorf("document WorkspaceID is required")
	}

	if d.Name == "" {
		return fmt.Errorf("document Name is required")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	if d.Generation < 0 {
		return fmt.Errorf("document Generation cannot be negative")
	}

	return nil
}

// isValidDocumentStatus checks if a DocumentStatus is valid
func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusUnchunked, DocumentStatusChunking, DocumentStatusChunked,
		DocumentStatusRechunking, DocumentStatusDeleted:
		return true
	}
	return false
}
