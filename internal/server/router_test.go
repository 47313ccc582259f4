package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harystyleseze/privexbot-kb/internal/api/handlers"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) RegisterDocument(ctx context.Context, input service.RegisterInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, workspaceID, id string) (*domain.Document, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListDocumentsOutput), args.Error(1)
}

func (m *MockDocumentService) DeleteDocument(ctx context.Context, workspaceID, id string) error {
	args := m.Called(ctx, workspaceID, id)
	return args.Error(0)
}

func (m *MockDocumentService) ElementsDownloadURL(ctx context.Context, workspaceID, id string) (string, error) {
	args := m.Called(ctx, workspaceID, id)
	return args.String(0), args.Error(1)
}

type MockChunkingService struct {
	mock.Mock
}

func (m *MockChunkingService) Chunk(ctx context.Context, input service.ChunkInput) (*service.ChunkOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChunkOutput), args.Error(1)
}

func (m *MockChunkingService) EnqueueRechunk(ctx context.Context, workspaceID, documentID string, config *domain.ChunkConfig, preserveManualEdits bool) (*domain.RechunkJob, error) {
	args := m.Called(ctx, workspaceID, documentID, config, preserveManualEdits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RechunkJob), args.Error(1)
}

func (m *MockChunkingService) ListChunks(ctx context.Context, input service.ListChunksInput) (*service.ListChunksOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListChunksOutput), args.Error(1)
}

func (m *MockChunkingService) UpdateChunkText(ctx context.Context, workspaceID, chunkID, text string) (*domain.Chunk, error) {
	args := m.Called(ctx, workspaceID, chunkID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chunk), args.Error(1)
}

func (m *MockChunkingService) ImportChunksCSV(ctx context.Context, workspaceID, documentID string, r io.Reader) ([]domain.Chunk, error) {
	args := m.Called(ctx, workspaceID, documentID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}

type MockMetadataService struct {
	mock.Mock
}

func (m *MockMetadataService) CreateField(ctx context.Context, input service.CreateFieldInput) (*domain.MetadataField, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetadataField), args.Error(1)
}

func (m *MockMetadataService) UpdateField(ctx context.Context, input service.UpdateFieldInput) (*domain.MetadataField, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetadataField), args.Error(1)
}

func (m *MockMetadataService) ListFields(ctx context.Context, workspaceID string) ([]domain.MetadataField, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MetadataField), args.Error(1)
}

func setupRouter() (http.Handler, *MockDocumentService, *MockChunkingService, *MockMetadataService) {
	documentSvc := new(MockDocumentService)
	chunkingSvc := new(MockChunkingService)
	metadataSvc := new(MockMetadataService)

	cfg := RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(documentSvc),
		ChunkingHandler: handlers.NewChunkingHandler(chunkingSvc),
		MetadataHandler: handlers.NewMetadataHandler(metadataSvc),
	}

	router := NewRouter(cfg)
	return router, documentSvc, chunkingSvc, metadataSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_WorkspaceScopedRoutes_RequireHeader(t *testing.T) {
	router, _, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/documents"},
		{http.MethodPost, "/documents"},
		{http.MethodGet, "/documents/123"},
		{http.MethodDelete, "/documents/123"},
		{http.MethodGet, "/documents/123/elements-url"},
		{http.MethodPost, "/documents/123/chunk"},
		{http.MethodPost, "/documents/123/rechunk"},
		{http.MethodGet, "/documents/123/chunks"},
		{http.MethodPost, "/documents/123/chunks/import"},
		{http.MethodPatch, "/chunks/123"},
		{http.MethodGet, "/metadata-fields"},
		{http.MethodPost, "/metadata-fields"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "X-Workspace-ID")
		})
	}
}

func TestRouter_GetDocument_WithWorkspace(t *testing.T) {
	router, documentSvc, _, _ := setupRouter()

	doc := &domain.Document{
		ID:          "doc-123",
		WorkspaceID: "ws-1",
		Name:        "Handbook",
		Status:      domain.DocumentStatusChunked,
		Generation:  1,
		Config:      domain.DefaultChunkConfig(),
		UploadedAt:  time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	documentSvc.On("GetDocument", mock.Anything, "ws-1", "doc-123").Return(doc, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-123", nil)
	req.Header.Set("X-Workspace-ID", "ws-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	documentSvc.AssertExpectations(t)
}

func TestRouter_ListChunks_RoutesToHandler(t *testing.T) {
	router, _, chunkingSvc, _ := setupRouter()

	chunkingSvc.On("ListChunks", mock.Anything, service.ListChunksInput{WorkspaceID: "ws-1", DocumentID: "doc-123"}).
		Return(&service.ListChunksOutput{Generation: 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-123/chunks", nil)
	req.Header.Set("X-Workspace-ID", "ws-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["generation"])
	chunkingSvc.AssertExpectations(t)
}

func TestRouter_ListMetadataFields(t *testing.T) {
	router, _, _, metadataSvc := setupRouter()

	metadataSvc.On("ListFields", mock.Anything, "ws-1").Return([]domain.MetadataField{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metadata-fields", nil)
	req.Header.Set("X-Workspace-ID", "ws-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	metadataSvc.AssertExpectations(t)
}
