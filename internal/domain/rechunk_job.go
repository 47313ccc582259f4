package domain

import (
	"fmt"
	"time"
)

// RechunkJobStatus represents the status of a background re-chunk job
type RechunkJobStatus string

const (
	RechunkJobStatusPending    RechunkJobStatus = "pending"
	RechunkJobStatusProcessing RechunkJobStatus = "processing"
	RechunkJobStatusCompleted  RechunkJobStatus = "completed"
	RechunkJobStatusFailed     RechunkJobStatus = "failed"
)

// RechunkJob is a queued background chunking run for a document. The job
// records the generation it intends to produce; the document advancing past
// that generation before the job runs makes the job stale.
type RechunkJob struct {
	ID                  string
	DocumentID          string
	TargetGeneration    int64
	PreserveManualEdits bool
	Status              RechunkJobStatus
	Retries             int
	Error               string
	CreatedAt           time.Time
	ProcessedAt         *time.Time
}

// ValidateRechunkJob validates a RechunkJob instance
func ValidateRechunkJob(j *RechunkJob) error {
	if j == nil {
		return fmt.Errorf("rechunk job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("rechunk job ID is required")
	}
	if j.DocumentID == "" {
		return fmt.Errorf("rechunk job DocumentID is required")
	}
	if j.TargetGeneration <= 0 {
		return fmt.Errorf("rechunk job TargetGeneration must be greater than 0")
	}
	switch j.Status {
	case RechunkJobStatusPending, RechunkJobStatusProcessing, RechunkJobStatusCompleted, RechunkJobStatusFailed:
	default:
		return fmt.Errorf("rechunk job Status is invalid: %s", j.Status)
	}
	return nil
}
