//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRechunkJob(documentID string, targetGeneration int64) *domain.RechunkJob {
	return &domain.RechunkJob{
		ID:               uuid.NewString(),
		DocumentID:       documentID,
		TargetGeneration: targetGeneration,
		Status:           domain.RechunkJobStatusPending,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRechunkJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	jobRepo := NewRechunkJobRepository(pool)
	doc := setupDocumentForChunks(ctx, t, docRepo)

	job := newTestRechunkJob(doc.ID, 1)
	job.PreserveManualEdits = true
	require.NoError(t, jobRepo.Create(ctx, job))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.DocumentID)
	assert.Equal(t, int64(1), retrieved.TargetGeneration)
	assert.True(t, retrieved.PreserveManualEdits)
	assert.Equal(t, domain.RechunkJobStatusPending, retrieved.Status)
	assert.Empty(t, retrieved.Error)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestRechunkJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewRechunkJobRepository(pool)

	_, err := jobRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRechunkJobNotFound)
}

func TestRechunkJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	jobRepo := NewRechunkJobRepository(pool)
	doc := setupDocumentForChunks(ctx, t, docRepo)

	first := newTestRechunkJob(doc.ID, 1)
	second := newTestRechunkJob(doc.ID, 2)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	done := newTestRechunkJob(doc.ID, 3)
	done.Status = domain.RechunkJobStatusCompleted
	require.NoError(t, jobRepo.Create(ctx, first))
	require.NoError(t, jobRepo.Create(ctx, second))
	require.NoError(t, jobRepo.Create(ctx, done))

	claimed, err := jobRepo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	// oldest pending job first
	assert.Equal(t, first.ID, claimed[0].ID)
	assert.Equal(t, domain.RechunkJobStatusProcessing, claimed[0].Status)

	// A second claim skips the one already taken.
	claimed2, err := jobRepo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed2, 1)
	assert.Equal(t, second.ID, claimed2[0].ID)
}

func TestRechunkJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	jobRepo := NewRechunkJobRepository(pool)
	doc := setupDocumentForChunks(ctx, t, docRepo)

	job := newTestRechunkJob(doc.ID, 1)
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.RechunkJobStatusFailed, "element stream unreadable"))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RechunkJobStatusFailed, retrieved.Status)
	assert.Equal(t, "element stream unreadable", retrieved.Error)
	require.NotNil(t, retrieved.ProcessedAt)
}

func TestRechunkJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	jobRepo := NewRechunkJobRepository(pool)
	doc := setupDocumentForChunks(ctx, t, docRepo)

	job := newTestRechunkJob(doc.ID, 1)
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retrieved.Retries)
}
