package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MetadataFieldRepository struct {
	db dbtx
}

func NewMetadataFieldRepository(pool *pgxpool.Pool) *MetadataFieldRepository {
	return &MetadataFieldRepository{db: pool}
}

func NewMetadataFieldRepositoryWithTx(tx pgx.Tx) *MetadataFieldRepository {
	return &MetadataFieldRepository{db: tx}
}

func (r *MetadataFieldRepository) Create(ctx context.Context, f *domain.MetadataField) error {
	value, err := marshalFieldValue(f.Value)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO metadata_fields (id, workspace_id, name, value_type, scope, applies_to, value, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.WorkspaceID, f.Name, f.ValueType, f.Scope, f.AppliesTo, value, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

func (r *MetadataFieldRepository) GetByID(ctx context.Context, id string) (*domain.MetadataField, error) {
	return r.getOne(ctx, `SELECT id, workspace_id, name, value_type, scope, applies_to, value, created_at, updated_at
		 FROM metadata_fields WHERE id = $1`, id)
}

func (r *MetadataFieldRepository) GetByName(ctx context.Context, workspaceID, name string) (*domain.MetadataField, error) {
	return r.getOne(ctx, `SELECT id, workspace_id, name, value_type, scope, applies_to, value, created_at, updated_at
		 FROM metadata_fields WHERE workspace_id = $1 AND name = $2`, workspaceID, name)
}

func (r *MetadataFieldRepository) getOne(ctx context.Context, sql string, args ...any) (*domain.MetadataField, error) {
	var f domain.MetadataField
	var value []byte
	err := r.db.QueryRow(ctx, sql, args...).
		Scan(&f.ID, &f.WorkspaceID, &f.Name, &f.ValueType, &f.Scope, &f.AppliesTo, &value, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMetadataFieldNotFound
		}
		return nil, err
	}
	if f.Value, err = unmarshalFieldValue(value); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MetadataFieldRepository) List(ctx context.Context, workspaceID string) ([]domain.MetadataField, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, workspace_id, name, value_type, scope, applies_to, value, created_at, updated_at
		 FROM metadata_fields WHERE workspace_id = $1 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []domain.MetadataField
	for rows.Next() {
		var f domain.MetadataField
		var value []byte
		if err := rows.Scan(&f.ID, &f.WorkspaceID, &f.Name, &f.ValueType, &f.Scope, &f.AppliesTo, &value, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		if f.Value, err = unmarshalFieldValue(value); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *MetadataFieldRepository) Update(ctx context.Context, f *domain.MetadataField) error {
	value, err := marshalFieldValue(f.Value)
	if err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE metadata_fields SET value_type = $2, applies_to = $3, value = $4, updated_at = $5 WHERE id = $1`,
		f.ID, f.ValueType, f.AppliesTo, value, f.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrMetadataFieldNotFound
	}
	return nil
}

func marshalFieldValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata value: %w", err)
	}
	return data, nil
}

func unmarshalFieldValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata value: %w", err)
	}
	return v, nil
}
