package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/harystyleseze/privexbot-kb/internal/api"
	"github.com/harystyleseze/privexbot-kb/internal/api/middleware"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/service"
)

type ChunkingServiceInterface interface {
	Chunk(ctx context.Context, input service.ChunkInput) (*service.ChunkOutput, error)
	EnqueueRechunk(ctx context.Context, workspaceID, documentID string, config *domain.ChunkConfig, preserveManualEdits bool) (*domain.RechunkJob, error)
	ListChunks(ctx context.Context, input service.ListChunksInput) (*service.ListChunksOutput, error)
	UpdateChunkText(ctx context.Context, workspaceID, chunkID, text string) (*domain.Chunk, error)
	ImportChunksCSV(ctx context.Context, workspaceID, documentID string, r io.Reader) ([]domain.Chunk, error)
}

type ChunkingHandler struct {
	svc ChunkingServiceInterface
}

func NewChunkingHandler(svc ChunkingServiceInterface) *ChunkingHandler {
	return &ChunkingHandler{svc: svc}
}

type ChunkRequest struct {
	Config              *domain.ChunkConfig `json:"config,omitempty"`
	PreserveManualEdits bool                `json:"preserve_manual_edits"`
	GenerateEmbeddings  bool                `json:"generate_embeddings"`
}

type RowRangeResponse struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

type ChunkResponse struct {
	ID                string            `json:"id"`
	DocumentID        string            `json:"document_id"`
	Generation        int64             `json:"generation"`
	SequenceIndex     int               `json:"sequence_index"`
	Text              string            `json:"text"`
	CharCount         int               `json:"char_count"`
	Prefix            string            `json:"prefix,omitempty"`
	SourceElementRefs []string          `json:"source_element_refs,omitempty"`
	PageNumbers       []int             `json:"page_numbers,omitempty"`
	Metadata          map[string]any    `json:"metadata,omitempty"`
	IsTable           bool              `json:"is_table"`
	RowRange          *RowRangeResponse `json:"row_range,omitempty"`
	OverlapCharCount  int               `json:"overlap_char_count"`
	HardCut           bool              `json:"hard_cut"`
	Edited            bool              `json:"edited"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

func chunkToResponse(c *domain.Chunk) *ChunkResponse {
	resp := &ChunkResponse{
		ID:                c.ID,
		DocumentID:        c.DocumentID,
		Generation:        c.Generation,
		SequenceIndex:     c.SequenceIndex,
		Text:              c.Text,
		CharCount:         c.CharCount,
		Prefix:            c.Prefix,
		SourceElementRefs: c.SourceElementRefs,
		PageNumbers:       c.PageNumbers,
		Metadata:          c.Metadata,
		IsTable:           c.IsTable,
		OverlapCharCount:  c.OverlapCharCount,
		HardCut:           c.HardCut,
		Edited:            c.Edited,
		CreatedAt:         c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:         c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if c.RowRange != nil {
		resp.RowRange = &RowRangeResponse{First: c.RowRange.First, Last: c.RowRange.Last}
	}
	return resp
}

type ChunkRunResponse struct {
	Document *DocumentResponse     `json:"document"`
	Chunks   []*ChunkResponse      `json:"chunks"`
	Warnings []domain.ChunkWarning `json:"warnings,omitempty"`
}

// Chunk runs a synchronous chunking pass and publishes the new generation.
func (h *ChunkingHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req ChunkRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	out, err := h.svc.Chunk(r.Context(), service.ChunkInput{
		WorkspaceID:         middleware.GetWorkspaceID(r.Context()),
		DocumentID:          documentID,
		Config:              req.Config,
		PreserveManualEdits: req.PreserveManualEdits,
		GenerateEmbeddings:  req.GenerateEmbeddings,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ChunkRunResponse{
		Document: documentToResponse(out.Document),
		Chunks:   make([]*ChunkResponse, 0, len(out.Chunks)),
		Warnings: out.Warnings,
	}
	for i := range out.Chunks {
		resp.Chunks = append(resp.Chunks, chunkToResponse(&out.Chunks[i]))
	}

	api.Success(w, http.StatusOK, resp)
}

type RechunkJobResponse struct {
	ID                  string `json:"id"`
	DocumentID          string `json:"document_id"`
	TargetGeneration    int64  `json:"target_generation"`
	PreserveManualEdits bool   `json:"preserve_manual_edits"`
	Status              string `json:"status"`
	CreatedAt           string `json:"created_at"`
}

// Rechunk queues a background re-chunking run.
func (h *ChunkingHandler) Rechunk(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req ChunkRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	job, err := h.svc.EnqueueRechunk(r.Context(), middleware.GetWorkspaceID(r.Context()), documentID, req.Config, req.PreserveManualEdits)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, &RechunkJobResponse{
		ID:                  job.ID,
		DocumentID:          job.DocumentID,
		TargetGeneration:    job.TargetGeneration,
		PreserveManualEdits: job.PreserveManualEdits,
		Status:              string(job.Status),
		CreatedAt:           job.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

type ListChunksResponse struct {
	Items      []*ChunkResponse `json:"items"`
	Generation int64            `json:"generation"`
	Cursor     string           `json:"cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

func (h *ChunkingHandler) ListChunks(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.ListChunks(r.Context(), service.ListChunksInput{
		WorkspaceID: middleware.GetWorkspaceID(r.Context()),
		DocumentID:  documentID,
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ListChunksResponse{
		Items:      make([]*ChunkResponse, 0, len(out.Items)),
		Generation: out.Generation,
		Cursor:     out.Cursor,
		HasMore:    out.HasMore,
	}
	for i := range out.Items {
		resp.Items = append(resp.Items, chunkToResponse(&out.Items[i]))
	}

	api.Success(w, http.StatusOK, resp)
}

type UpdateChunkRequest struct {
	Text string `json:"text"`
}

func (h *ChunkingHandler) UpdateChunk(w http.ResponseWriter, r *http.Request) {
	chunkID := chi.URLParam(r, "id")
	if chunkID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chunk, err := h.svc.UpdateChunkText(r.Context(), middleware.GetWorkspaceID(r.Context()), chunkID, req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, chunkToResponse(chunk))
}

// ImportChunks appends chunks from an uploaded CSV to the document's current
// generation. The body is the raw CSV.
func (h *ChunkingHandler) ImportChunks(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	chunks, err := h.svc.ImportChunksCSV(r.Context(), middleware.GetWorkspaceID(r.Context()), documentID, r.Body)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*ChunkResponse, 0, len(chunks))
	for i := range chunks {
		resp = append(resp, chunkToResponse(&chunks[i]))
	}

	api.Success(w, http.StatusCreated, resp)
}
