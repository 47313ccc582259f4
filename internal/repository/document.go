package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/pagination"
	"github.com/harystyleseze/privexbot-kb/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	config, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk config: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO documents (id, workspace_id, name, source, status, generation, config, element_key, uploaded_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.WorkspaceID, d.Name, nullableString(d.Source), d.Status, d.Generation, config, nullableString(d.ElementKey), d.UploadedAt, d.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var source, elementKey *string
	var config []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, workspace_id, name, source, status, generation, config, element_key, uploaded_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.WorkspaceID, &d.Name, &source, &d.Status, &d.Generation, &config, &elementKey, &d.UploadedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if source != nil {
		d.Source = *source
	}
	if elementKey != nil {
		d.ElementKey = *elementKey
	}
	if err := json.Unmarshal(config, &d.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk config: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepository) ListByWorkspaceWithCursor(ctx context.Context, workspaceID string, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, workspace_id, name, source, status, generation, config, element_key, uploaded_at, updated_at
			 FROM documents
			 WHERE workspace_id = $1 AND status != 'deleted' AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			workspaceID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, workspace_id, name, source, status, generation, config, element_key, uploaded_at, updated_at
			 FROM documents
			 WHERE workspace_id = $1 AND status != 'deleted'
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			workspaceID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *DocumentRepository) Update(ctx context.Context, d *domain.Document) error {
	config, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk config: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET name = $2, source = $3, status = $4, generation = $5, config = $6, element_key = $7, updated_at = $8
		 WHERE id = $1`,
		d.ID, d.Name, nullableString(d.Source), d.Status, d.Generation, config, nullableString(d.ElementKey), d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var items []*domain.Document
	for rows.Next() {
		var d domain.Document
		var source, elementKey *string
		var config []byte
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Name, &source, &d.Status, &d.Generation, &config, &elementKey, &d.UploadedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if source != nil {
			d.Source = *source
		}
		if elementKey != nil {
			d.ElementKey = *elementKey
		}
		if err := json.Unmarshal(config, &d.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chunk config: %w", err)
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}
