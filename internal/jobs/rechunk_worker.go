package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/service"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	// claimBatchSize bounds how many jobs a single poll claims
	claimBatchSize = 10
)

// RechunkJobRepository defines the interface for rechunk job persistence
type RechunkJobRepository interface {
	// ClaimPending retrieves and claims pending rechunk jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.RechunkJob, error)

	// UpdateStatus updates the status of a rechunk job
	UpdateStatus(ctx context.Context, jobID string, status domain.RechunkJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// ChunkRunner runs a chunking pass for a document
type ChunkRunner interface {
	Chunk(ctx context.Context, input service.ChunkInput) (*service.ChunkOutput, error)
}

// RechunkWorker processes queued re-chunking jobs
type RechunkWorker struct {
	repo    RechunkJobRepository
	service ChunkRunner
}

// NewRechunkWorker creates a new RechunkWorker instance
func NewRechunkWorker(repo RechunkJobRepository, service ChunkRunner) *RechunkWorker {
	return &RechunkWorker{
		repo:    repo,
		service: service,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *RechunkWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending rechunk jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *RechunkWorker) processJob(ctx context.Context, job *domain.RechunkJob) error {
	log.Printf("Processing job %s for document %s (target generation %d)", job.ID, job.DocumentID, job.TargetGeneration)

	_, err := w.service.Chunk(ctx, service.ChunkInput{
		DocumentID:          job.DocumentID,
		PreserveManualEdits: job.PreserveManualEdits,
		ExpectedGeneration:  job.TargetGeneration,
		GenerateEmbeddings:  true,
	})

	if errors.Is(err, domain.ErrDocumentAlreadyFinished) {
		// A newer run already advanced the document past this job's target.
		// The stale job is done, not failed.
		log.Printf("Job %s is stale: document %s already advanced past generation %d", job.ID, job.DocumentID, job.TargetGeneration)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.RechunkJobStatusCompleted, ""); err != nil {
			return fmt.Errorf("failed to mark stale job as completed: %w", err)
		}
		return nil
	}

	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.RechunkJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *RechunkWorker) handleJobFailure(ctx context.Context, job *domain.RechunkJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.RechunkJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.RechunkJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
