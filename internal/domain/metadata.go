package domain

import (
	"fmt"
	"regexp"
	"time"
)

// MetadataValueType represents the value type of a metadata field
type MetadataValueType string

const (
	MetadataTypeString MetadataValueType = "string"
	MetadataTypeNumber MetadataValueType = "number"
	MetadataTypeTime   MetadataValueType = "time"
)

// MetadataScope distinguishes system-set fields from user-defined ones
type MetadataScope string

const (
	// MetadataScopeBuiltIn fields are set by the pipeline and read-only
	MetadataScopeBuiltIn MetadataScope = "built_in"
	// MetadataScopeCustom fields are user-defined and mutable
	MetadataScopeCustom MetadataScope = "custom"
)

// Built-in metadata field names attached to every chunk
const (
	MetadataDocumentName  = "document_name"
	MetadataUploadDate    = "upload_date"
	MetadataSource        = "source"
	MetadataPageNumbers   = "page_numbers"
	MetadataOmittedImages = "omitted_images"
)

// Field names are lowercase ASCII letters, digits, and underscores, starting
// with a letter.
var metadataNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// MetadataField is a schema-level metadata definition, owned by one workspace.
// A custom field carries its value and the set of document ids it applies to;
// an empty AppliesTo means the field applies to all of the workspace's
// documents.
type MetadataField struct {
	ID          string
	WorkspaceID string
	Name        string
	ValueType   MetadataValueType
	Scope       MetadataScope
	AppliesTo   []string
	Value       any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppliesToDocument reports whether the field should be attached to chunks of
// the given document.
func (f *MetadataField) AppliesToDocument(documentID string) bool {
	if len(f.AppliesTo) == 0 {
		return true
	}
	for _, id := range f.AppliesTo {
		if id == documentID {
			return true
		}
	}
	return false
}

// ValidateMetadataFieldName checks the field name grammar. Names that are not
// lowercase letters, digits, and underscores are rejected with the
// invalid_metadata error code.
func ValidateMetadataFieldName(name string) error {
	if name == "" {
		return ErrInvalidMetadataName
	}
	if !metadataNamePattern.MatchString(name) {
		return ErrInvalidMetadataName
	}
	return nil
}

// ValidateMetadataField validates a MetadataField instance
func ValidateMetadataField(f *MetadataField) error {
	if f == nil {
		return fmt.Errorf("metadata field cannot be nil")
	}

	if f.WorkspaceID == "" {
		return fmt.Errorf("metadata field WorkspaceID is required")
	}

	if err := ValidateMetadataFieldName(f.Name); err != nil {
		return err
	}

	if !isValidMetadataValueType(f.ValueType) {
		return NewDomainError(ErrCodeInvalidMetadata, "metadata value type is invalid: "+string(f.ValueType))
	}

	if f.Scope != MetadataScopeBuiltIn && f.Scope != MetadataScopeCustom {
		return fmt.Errorf("metadata field Scope is invalid: %s", f.Scope)
	}

	if f.Value != nil {
		if err := ValidateMetadataValue(f.ValueType, f.Value); err != nil {
			return err
		}
	}

	return nil
}

// ValidateMetadataValue checks that a value matches the declared field type
func ValidateMetadataValue(t MetadataValueType, value any) error {
	switch t {
	case MetadataTypeString:
		if _, ok := value.(string); !ok {
			return ErrInvalidMetadataValue
		}
	case MetadataTypeNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return ErrInvalidMetadataValue
		}
	case MetadataTypeTime:
		switch v := value.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return ErrInvalidMetadataValue
			}
		default:
			return ErrInvalidMetadataValue
		}
	default:
		return ErrInvalidMetadataValue
	}
	return nil
}

// isValidMetadataValueType checks if a MetadataValueType is valid
func isValidMetadataValueType(t MetadataValueType) bool {
	switch t {
	case MetadataTypeString, MetadataTypeNumber, MetadataTypeTime:
		return true
	}
	return false
}
