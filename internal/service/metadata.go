package service

import (
	"context"
	"time"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
)

// MetadataFieldRepositoryInterface defines the repository interface for
// metadata field persistence
type MetadataFieldRepositoryInterface interface {
	Create(ctx context.Context, f *domain.MetadataField) error
	GetByID(ctx context.Context, id string) (*domain.MetadataField, error)
	GetByName(ctx context.Context, workspaceID, name string) (*domain.MetadataField, error)
	List(ctx context.Context, workspaceID string) ([]domain.MetadataField, error)
	Update(ctx context.Context, f *domain.MetadataField) error
}

// builtInFieldNames are reserved: custom fields may not shadow them.
var builtInFieldNames = map[string]bool{
	domain.MetadataDocumentName:  true,
	domain.MetadataUploadDate:    true,
	domain.MetadataSource:        true,
	domain.MetadataPageNumbers:   true,
	domain.MetadataOmittedImages: true,
}

// MetadataService manages custom metadata field definitions. Field values are
// applied to chunks at chunking time, so a value change takes effect on the
// next run.
type MetadataService struct {
	repo    MetadataFieldRepositoryInterface
	uuidGen UUIDGenerator
}

// NewMetadataService creates a new MetadataService instance
func NewMetadataService(repo MetadataFieldRepositoryInterface) *MetadataService {
	return &MetadataService{repo: repo, uuidGen: &DefaultUUIDGenerator{}}
}

// NewMetadataServiceWithUUIDGen creates a MetadataService with a custom UUID
// generator (for testing)
func NewMetadataServiceWithUUIDGen(repo MetadataFieldRepositoryInterface, uuidGen UUIDGenerator) *MetadataService {
	return &MetadataService{repo: repo, uuidGen: uuidGen}
}

// CreateFieldInput represents the input for creating a metadata field
type CreateFieldInput struct {
	WorkspaceID string
	Name        string
	ValueType   domain.MetadataValueType
	Value       any
	AppliesTo   []string
}

// CreateField defines a new custom metadata field. Names violating the field
// name grammar or shadowing a built-in field are rejected with the
// invalid_metadata error code.
func (s *MetadataService) CreateField(ctx context.Context, input CreateFieldInput) (*domain.MetadataField, error) {
	if err := domain.ValidateMetadataFieldName(input.Name); err != nil {
		return nil, err
	}
	if builtInFieldNames[input.Name] {
		return nil, domain.NewDomainError(domain.ErrCodeInvalidMetadata,
			"metadata field name shadows a built-in field: "+input.Name)
	}

	if existing, err := s.repo.GetByName(ctx, input.WorkspaceID, input.Name); err == nil && existing != nil {
		return nil, domain.ErrMetadataFieldAlreadyExists
	}

	now := time.Now().UTC()
	field := &domain.MetadataField{
		ID:          s.uuidGen.NewString(),
		WorkspaceID: input.WorkspaceID,
		Name:        input.Name,
		ValueType:   input.ValueType,
		Scope:       domain.MetadataScopeCustom,
		AppliesTo:   input.AppliesTo,
		Value:       input.Value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := domain.ValidateMetadataField(field); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, field); err != nil {
		return nil, err
	}

	return field, nil
}

// UpdateFieldInput represents the input for updating a metadata field's value
// or document assignment
type UpdateFieldInput struct {
	WorkspaceID string
	FieldID     string
	Value       any
	AppliesTo   []string
}

// UpdateField changes a custom field's value or document assignment. Built-in
// fields are read-only; a field owned by another workspace is reported as not
// found.
func (s *MetadataService) UpdateField(ctx context.Context, input UpdateFieldInput) (*domain.MetadataField, error) {
	field, err := s.repo.GetByID(ctx, input.FieldID)
	if err != nil {
		return nil, err
	}
	if field.WorkspaceID != input.WorkspaceID {
		return nil, domain.ErrMetadataFieldNotFound
	}

	if field.Scope == domain.MetadataScopeBuiltIn {
		return nil, domain.ErrCannotEditBuiltInField
	}

	if input.Value != nil {
		if err := domain.ValidateMetadataValue(field.ValueType, input.Value); err != nil {
			return nil, err
		}
		field.Value = input.Value
	}
	if input.AppliesTo != nil {
		field.AppliesTo = input.AppliesTo
	}
	field.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, field); err != nil {
		return nil, err
	}

	return field, nil
}

// ListFields returns the workspace's metadata field definitions.
func (s *MetadataService) ListFields(ctx context.Context, workspaceID string) ([]domain.MetadataField, error) {
	return s.repo.List(ctx, workspaceID)
}
