package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harystyleseze/privexbot-kb/internal/api"
	"github.com/harystyleseze/privexbot-kb/internal/api/middleware"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/service"
)

type MetadataServiceInterface interface {
	CreateField(ctx context.Context, input service.CreateFieldInput) (*domain.MetadataField, error)
	UpdateField(ctx context.Context, input service.UpdateFieldInput) (*domain.MetadataField, error)
	ListFields(ctx context.Context, workspaceID string) ([]domain.MetadataField, error)
}

type MetadataHandler struct {
	svc MetadataServiceInterface
}

func NewMetadataHandler(svc MetadataServiceInterface) *MetadataHandler {
	return &MetadataHandler{svc: svc}
}

type CreateFieldRequest struct {
	Name      string   `json:"name"`
	ValueType string   `json:"value_type"`
	Value     any      `json:"value,omitempty"`
	AppliesTo []string `json:"applies_to,omitempty"`
}

type UpdateFieldRequest struct {
	Value     any      `json:"value,omitempty"`
	AppliesTo []string `json:"applies_to,omitempty"`
}

type MetadataFieldResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ValueType string   `json:"value_type"`
	Scope     string   `json:"scope"`
	AppliesTo []string `json:"applies_to,omitempty"`
	Value     any      `json:"value,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func fieldToResponse(f *domain.MetadataField) *MetadataFieldResponse {
	return &MetadataFieldResponse{
		ID:        f.ID,
		Name:      f.Name,
		ValueType: string(f.ValueType),
		Scope:     string(f.Scope),
		AppliesTo: f.AppliesTo,
		Value:     f.Value,
		CreatedAt: f.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: f.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *MetadataHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ValueType == "" {
		api.Error(w, http.StatusBadRequest, "value_type is required")
		return
	}

	field, err := h.svc.CreateField(r.Context(), service.CreateFieldInput{
		WorkspaceID: middleware.GetWorkspaceID(r.Context()),
		Name:        req.Name,
		ValueType:   domain.MetadataValueType(req.ValueType),
		Value:       req.Value,
		AppliesTo:   req.AppliesTo,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, fieldToResponse(field))
}

func (h *MetadataHandler) List(w http.ResponseWriter, r *http.Request) {
	fields, err := h.svc.ListFields(r.Context(), middleware.GetWorkspaceID(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*MetadataFieldResponse, 0, len(fields))
	for i := range fields {
		resp = append(resp, fieldToResponse(&fields[i]))
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *MetadataHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	field, err := h.svc.UpdateField(r.Context(), service.UpdateFieldInput{
		WorkspaceID: middleware.GetWorkspaceID(r.Context()),
		FieldID:     id,
		Value:       req.Value,
		AppliesTo:   req.AppliesTo,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, fieldToResponse(field))
}
