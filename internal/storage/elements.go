package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// ObjectStore is the subset of S3Client the element store needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// ElementStore persists parsed element streams as JSON objects. The stream is
// written once at document registration and read back on every chunking run,
// so a re-chunk never depends on the original upload being available.
type ElementStore struct {
	store ObjectStore
}

// NewElementStore creates an ElementStore backed by the given object store.
func NewElementStore(store ObjectStore) *ElementStore {
	return &ElementStore{store: store}
}

// ElementKey returns the storage key for a document's element stream.
func ElementKey(documentID string) string {
	return fmt.Sprintf("elements/%s.json", documentID)
}

// PutElements stores a document's element stream.
func (s *ElementStore) PutElements(ctx context.Context, key string, elements []domain.Element) error {
	data, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("failed to marshal element stream: %w", err)
	}

	if err := s.store.PutObject(ctx, key, "application/json", data); err != nil {
		return fmt.Errorf("failed to store element stream: %w", err)
	}

	return nil
}

// GetElements loads a document's element stream.
func (s *ElementStore) GetElements(ctx context.Context, key string) ([]domain.Element, error) {
	data, err := s.store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load element stream: %w", err)
	}

	var elements []domain.Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal element stream: %w", err)
	}

	return elements, nil
}

// DownloadURL returns a short-lived presigned URL for a document's stored
// element stream, for operator inspection.
func (s *ElementStore) DownloadURL(ctx context.Context, key string) (string, error) {
	url, err := s.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to presign element stream: %w", err)
	}
	return url, nil
}

// DeleteElements removes a document's element stream.
func (s *ElementStore) DeleteElements(ctx context.Context, key string) error {
	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete element stream: %w", err)
	}
	return nil
}
