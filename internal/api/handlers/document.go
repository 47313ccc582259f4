package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/harystyleseze/privexbot-kb/internal/api"
	"github.com/harystyleseze/privexbot-kb/internal/api/middleware"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/service"
)

type DocumentService interface {
	RegisterDocument(ctx context.Context, input service.RegisterInput) (*domain.Document, error)
	GetDocument(ctx context.Context, workspaceID, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
	DeleteDocument(ctx context.Context, workspaceID, id string) error
	ElementsDownloadURL(ctx context.Context, workspaceID, id string) (string, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type RegisterDocumentRequest struct {
	Name     string              `json:"name"`
	Source   string              `json:"source"`
	Elements []domain.Element    `json:"elements"`
	Config   *domain.ChunkConfig `json:"config,omitempty"`
}

type DocumentResponse struct {
	ID          string             `json:"id"`
	WorkspaceID string             `json:"workspace_id"`
	Name        string             `json:"name"`
	Source      string             `json:"source,omitempty"`
	Status      string             `json:"status"`
	Generation  int64              `json:"generation"`
	Config      domain.ChunkConfig `json:"config"`
	UploadedAt  string             `json:"uploaded_at"`
	UpdatedAt   string             `json:"updated_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		Name:        d.Name,
		Source:      d.Source,
		Status:      string(d.Status),
		Generation:  d.Generation,
		Config:      d.Config,
		UploadedAt:  d.UploadedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *DocumentHandler) Register(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req RegisterDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	doc, err := h.svc.RegisterDocument(r.Context(), service.RegisterInput{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Source:      req.Source,
		Elements:    req.Elements,
		Config:      req.Config,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), middleware.GetWorkspaceID(r.Context()), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

type ElementsURLResponse struct {
	URL string `json:"url"`
}

// ElementsURL returns a presigned download URL for the document's stored
// element stream.
func (h *DocumentHandler) ElementsURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	url, err := h.svc.ElementsDownloadURL(r.Context(), middleware.GetWorkspaceID(r.Context()), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ElementsURLResponse{URL: url})
}

type ListDocumentsResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.ListDocuments(r.Context(), service.ListDocumentsInput{
		WorkspaceID: middleware.GetWorkspaceID(r.Context()),
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ListDocumentsResponse{
		Items:   make([]*DocumentResponse, 0, len(out.Items)),
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	}
	for _, d := range out.Items {
		resp.Items = append(resp.Items, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.DeleteDocument(r.Context(), middleware.GetWorkspaceID(r.Context()), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
