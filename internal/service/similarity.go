package service

import (
	"context"
	"fmt"
	"math"
	"time"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

const (
	// embeddingMaxAttempts bounds retries of transient embedding failures
	embeddingMaxAttempts = 3
	// embeddingRetryBase is the first backoff delay; it doubles per attempt
	embeddingRetryBase = 500 * time.Millisecond
)

// generateEmbeddingWithRetry calls the embedding client with bounded
// exponential backoff. Cancellation aborts between attempts.
func generateEmbeddingWithRetry(ctx context.Context, client EmbeddingClient, text string) ([]float32, error) {
	var lastErr error
	delay := embeddingRetryBase

	for attempt := 1; attempt <= embeddingMaxAttempts; attempt++ {
		embedding, err := client.GenerateEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
		lastErr = err

		if attempt == embeddingMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", embeddingMaxAttempts, lastErr)
}

// EmbeddingSimilarityScorer scores the semantic relatedness of two texts as
// the cosine similarity of their embeddings. It backs the similarity chunking
// strategy.
type EmbeddingSimilarityScorer struct {
	client EmbeddingClient
}

// NewEmbeddingSimilarityScorer creates a scorer backed by the given client.
func NewEmbeddingSimilarityScorer(client EmbeddingClient) *EmbeddingSimilarityScorer {
	return &EmbeddingSimilarityScorer{client: client}
}

// Score returns the cosine similarity of the two texts' embeddings, in [-1, 1].
func (s *EmbeddingSimilarityScorer) Score(ctx context.Context, accumulated, next string) (float64, error) {
	a, err := generateEmbeddingWithRetry(ctx, s.client, accumulated)
	if err != nil {
		return 0, err
	}

	b, err := generateEmbeddingWithRetry(ctx, s.client, next)
	if err != nil {
		return 0, err
	}

	return cosineSimilarity(a, b)
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cannot compare zero-magnitude embeddings")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
