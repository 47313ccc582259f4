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
	"github.com/pgvector/pgvector-go"
)

const chunkColumns = `id, document_id, generation, sequence_index, text, char_count, prefix,
	source_element_refs, page_numbers, metadata, is_table, row_first, row_last,
	overlap_char_count, hard_cut, edited, embedding, created_at, updated_at`

// ChunkRepository handles persistence of chunk generations.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*domain.Chunk, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = $1`, id)
	c, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *ChunkRepository) ListByGeneration(ctx context.Context, documentID string, generation int64) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+chunkColumns+`
		 FROM chunks WHERE document_id = $1 AND generation = $2
		 ORDER BY sequence_index`,
		documentID, generation,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

func (r *ChunkRepository) ListByGenerationWithCursor(ctx context.Context, documentID string, generation int64, cursor *pagination.Cursor, limit int) (*service.ChunkPageResult, error) {
	if limit <= 0 {
		limit = 50
	}

	// Chunks paginate by sequence index; the cursor's LastID carries the last
	// chunk id, resolved to its index.
	afterIndex := -1
	if cursor != nil && cursor.LastID != "" {
		var idx int
		err := r.db.QueryRow(ctx,
			`SELECT sequence_index FROM chunks WHERE id = $1`, cursor.LastID,
		).Scan(&idx)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			afterIndex = idx
		}
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+chunkColumns+`
		 FROM chunks
		 WHERE document_id = $1 AND generation = $2 AND sequence_index > $3
		 ORDER BY sequence_index
		 LIMIT $4`,
		documentID, generation, afterIndex, limit+1,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanChunkRows(rows)
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

	return &service.ChunkPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *ChunkRepository) ListEdited(ctx context.Context, documentID string, generation int64) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+chunkColumns+`
		 FROM chunks WHERE document_id = $1 AND generation = $2 AND edited
		 ORDER BY sequence_index`,
		documentID, generation,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

func (r *ChunkRepository) CountByGeneration(ctx context.Context, documentID string, generation int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1 AND generation = $2`,
		documentID, generation,
	).Scan(&count)
	return count, err
}

func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := r.insert(ctx, &chunks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChunkRepository) Update(ctx context.Context, c *domain.Chunk) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE chunks
		 SET text = $2, char_count = $3, prefix = $4, metadata = $5, edited = $6, embedding = $7, updated_at = $8
		 WHERE id = $1`,
		c.ID, c.Text, c.CharCount, nullableString(c.Prefix), metadata, c.Edited, chunkVector(c.Embedding), c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChunkNotFound
	}
	return nil
}

// ReplaceGeneration inserts a new chunk generation and removes every older
// one for the document. Within a transaction this makes the generation swap
// atomic: readers see the old set or the new set, never a mix.
func (r *ChunkRepository) ReplaceGeneration(ctx context.Context, documentID string, generation int64, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := r.insert(ctx, &chunks[i]); err != nil {
			return err
		}
	}

	_, err := r.db.Exec(ctx,
		`DELETE FROM chunks WHERE document_id = $1 AND generation < $2`,
		documentID, generation,
	)
	return err
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

func (r *ChunkRepository) insert(ctx context.Context, c *domain.Chunk) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	var rowFirst, rowLast *int
	if c.RowRange != nil {
		rowFirst, rowLast = &c.RowRange.First, &c.RowRange.Last
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO chunks
			(id, document_id, generation, sequence_index, text, char_count, prefix,
			 source_element_refs, page_numbers, metadata, is_table, row_first, row_last,
			 overlap_char_count, hard_cut, edited, embedding, created_at, updated_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		c.ID, c.DocumentID, c.Generation, c.SequenceIndex, c.Text, c.CharCount, nullableString(c.Prefix),
		c.SourceElementRefs, c.PageNumbers, metadata, c.IsTable, rowFirst, rowLast,
		c.OverlapCharCount, c.HardCut, c.Edited, chunkVector(c.Embedding), c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// chunkVector maps empty embeddings to SQL NULL.
func chunkVector(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

func scanChunk(row pgx.Row) (*domain.Chunk, error) {
	var c domain.Chunk
	var prefix *string
	var metadata []byte
	var rowFirst, rowLast *int
	var embedding *pgvector.Vector

	err := row.Scan(&c.ID, &c.DocumentID, &c.Generation, &c.SequenceIndex, &c.Text, &c.CharCount, &prefix,
		&c.SourceElementRefs, &c.PageNumbers, &metadata, &c.IsTable, &rowFirst, &rowLast,
		&c.OverlapCharCount, &c.HardCut, &c.Edited, &embedding, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if prefix != nil {
		c.Prefix = *prefix
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
		}
	}
	if rowFirst != nil && rowLast != nil {
		c.RowRange = &domain.RowRange{First: *rowFirst, Last: *rowLast}
	}
	if embedding != nil {
		c.Embedding = embedding.Slice()
	}
	return &c, nil
}

func scanChunkRows(rows pgx.Rows) ([]domain.Chunk, error) {
	var items []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}
