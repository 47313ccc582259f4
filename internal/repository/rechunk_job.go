package repository

import (
	"context"
	"errors"
	"time"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RechunkJobRepository struct {
	db dbtx
}

func NewRechunkJobRepository(pool *pgxpool.Pool) *RechunkJobRepository {
	return &RechunkJobRepository{db: pool}
}

func NewRechunkJobRepositoryWithTx(tx pgx.Tx) *RechunkJobRepository {
	return &RechunkJobRepository{db: tx}
}

func (r *RechunkJobRepository) Create(ctx context.Context, job *domain.RechunkJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO rechunk_jobs (id, document_id, target_generation, preserve_manual_edits, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.DocumentID, job.TargetGeneration, job.PreserveManualEdits, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *RechunkJobRepository) GetByID(ctx context.Context, id string) (*domain.RechunkJob, error) {
	var job domain.RechunkJob
	var errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, target_generation, preserve_manual_edits, status, retries, error, created_at, processed_at
		 FROM rechunk_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.DocumentID, &job.TargetGeneration, &job.PreserveManualEdits, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRechunkJobNotFound
		}
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// ClaimPending atomically claims up to limit pending jobs for processing.
// SKIP LOCKED keeps concurrent workers from claiming the same job.
func (r *RechunkJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.RechunkJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM rechunk_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE rechunk_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE rechunk_jobs.id = cte.id
		 RETURNING rechunk_jobs.id, rechunk_jobs.document_id, rechunk_jobs.target_generation,
		           rechunk_jobs.preserve_manual_edits, rechunk_jobs.status, rechunk_jobs.retries,
		           rechunk_jobs.error, rechunk_jobs.created_at, rechunk_jobs.processed_at`,
		domain.RechunkJobStatusPending, limit, domain.RechunkJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.RechunkJob
	for rows.Next() {
		var job domain.RechunkJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.DocumentID, &job.TargetGeneration, &job.PreserveManualEdits, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

func (r *RechunkJobRepository) UpdateStatus(ctx context.Context, id string, status domain.RechunkJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.RechunkJobStatusCompleted || status == domain.RechunkJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE rechunk_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRechunkJobNotFound
	}
	return nil
}

func (r *RechunkJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE rechunk_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRechunkJobNotFound
	}
	return nil
}
