package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/harystyleseze/privexbot-kb/internal/chunker"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/pagination"
	"github.com/harystyleseze/privexbot-kb/internal/telemetry"
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByWorkspaceWithCursor(ctx context.Context, workspaceID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	Update(ctx context.Context, d *domain.Document) error
}

// ChunkRepositoryInterface defines the repository interface for chunk persistence
type ChunkRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Chunk, error)
	ListByGeneration(ctx context.Context, documentID string, generation int64) ([]domain.Chunk, error)
	ListByGenerationWithCursor(ctx context.Context, documentID string, generation int64, cursor *pagination.Cursor, limit int) (*ChunkPageResult, error)
	ListEdited(ctx context.Context, documentID string, generation int64) ([]domain.Chunk, error)
	CountByGeneration(ctx context.Context, documentID string, generation int64) (int, error)
	CreateBatch(ctx context.Context, chunks []domain.Chunk) error
	Update(ctx context.Context, c *domain.Chunk) error
	ReplaceGeneration(ctx context.Context, documentID string, generation int64, chunks []domain.Chunk) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ElementStoreInterface defines the storage interface for parsed element streams
type ElementStoreInterface interface {
	PutElements(ctx context.Context, key string, elements []domain.Element) error
	GetElements(ctx context.Context, key string) ([]domain.Element, error)
	DeleteElements(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// RechunkJobRepositoryInterface defines the repository interface for queued re-chunk jobs
type RechunkJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.RechunkJob) error
}

// ChunkPipeline defines the interface to the chunking pipeline
type ChunkPipeline interface {
	Run(ctx context.Context, in chunker.RunInput) (*chunker.Result, error)
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

type ChunkPageResult struct {
	Items      []domain.Chunk
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ChunkingService owns the document chunking lifecycle: registration, chunking
// runs, generation replacement, manual edits, and bulk import. A chunking run
// for a document is single-flight with newest-wins: starting a new run cancels
// the one in progress.
type ChunkingService struct {
	documentRepo DocumentRepositoryInterface
	chunkRepo    ChunkRepositoryInterface
	metadataRepo MetadataFieldRepositoryInterface
	elements     ElementStoreInterface
	pipeline     ChunkPipeline
	embedder     EmbeddingClient
	tx           TxRunner
	jobRepo      RechunkJobRepositoryInterface
	uuidGen      UUIDGenerator

	mu      sync.Mutex
	running map[string]*chunkRun
}

// chunkRun identifies one in-flight chunking run for takeover bookkeeping.
type chunkRun struct {
	cancel context.CancelFunc
}

// NewChunkingService creates a new ChunkingService instance. The embedder is
// optional: without one, chunks are stored without embeddings.
func NewChunkingService(
	documentRepo DocumentRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	metadataRepo MetadataFieldRepositoryInterface,
	elements ElementStoreInterface,
	pipeline ChunkPipeline,
	embedder EmbeddingClient,
) *ChunkingService {
	return &ChunkingService{
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		metadataRepo: metadataRepo,
		elements:     elements,
		pipeline:     pipeline,
		embedder:     embedder,
		uuidGen:      &DefaultUUIDGenerator{},
		running:      make(map[string]*chunkRun),
	}
}

// NewChunkingServiceWithUUIDGen creates a ChunkingService with a custom UUID
// generator (for testing)
func NewChunkingServiceWithUUIDGen(
	documentRepo DocumentRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	metadataRepo MetadataFieldRepositoryInterface,
	elements ElementStoreInterface,
	pipeline ChunkPipeline,
	embedder EmbeddingClient,
	uuidGen UUIDGenerator,
) *ChunkingService {
	s := NewChunkingService(documentRepo, chunkRepo, metadataRepo, elements, pipeline, embedder)
	s.uuidGen = uuidGen
	return s
}

// WithTxRunner makes the generation swap and the document update run in one
// database transaction.
func (s *ChunkingService) WithTxRunner(tx TxRunner) *ChunkingService {
	s.tx = tx
	return s
}

// WithRechunkJobs enables queued background re-chunking via EnqueueRechunk.
func (s *ChunkingService) WithRechunkJobs(jobRepo RechunkJobRepositoryInterface) *ChunkingService {
	s.jobRepo = jobRepo
	return s
}

// EnqueueRechunk queues a background re-chunking run for a document. The job
// targets the generation after the document's current one; if another run
// publishes first, the worker drops the job as stale instead of overwriting
// the newer result.
func (s *ChunkingService) EnqueueRechunk(ctx context.Context, workspaceID, documentID string, config *domain.ChunkConfig, preserveManualEdits bool) (*domain.RechunkJob, error) {
	if s.jobRepo == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "background re-chunking is not configured")
	}

	doc, err := s.getOwnedDocument(ctx, workspaceID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.DocumentStatusDeleted {
		return nil, domain.ErrDocumentNotFound
	}
	if doc.ElementKey == "" {
		return nil, domain.ErrDatasetNotInitialized
	}

	if config != nil {
		if err := domain.ValidateChunkConfig(*config); err != nil {
			return nil, err
		}
		doc.Config = *config
		doc.UpdatedAt = time.Now().UTC()
		if err := s.documentRepo.Update(ctx, doc); err != nil {
			return nil, err
		}
	}

	job := &domain.RechunkJob{
		ID:                  s.uuidGen.NewString(),
		DocumentID:          documentID,
		TargetGeneration:    doc.Generation + 1,
		PreserveManualEdits: preserveManualEdits,
		Status:              domain.RechunkJobStatusPending,
		CreatedAt:           time.Now().UTC(),
	}
	if err := domain.ValidateRechunkJob(job); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// RegisterInput represents the input for registering a document
type RegisterInput struct {
	WorkspaceID string
	Name        string
	Source      string
	Elements    []domain.Element
	Config      *domain.ChunkConfig
}

// RegisterDocument stores a document's parsed element stream and creates the
// document record in the unchunked state.
func (s *ChunkingService) RegisterDocument(ctx context.Context, input RegisterInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChunkingService.RegisterDocument", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "register",
	})
	defer span.End()

	for _, el := range input.Elements {
		if err := domain.ValidateElement(el); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid element stream", err)
		}
	}

	now := time.Now().UTC()
	documentID := s.uuidGen.NewString()
	elementKey := fmt.Sprintf("elements/%s.json", documentID)

	doc := domain.NewDocument(documentID, input.WorkspaceID, input.Name, input.Source, elementKey, now)
	if input.Config != nil {
		if err := domain.ValidateChunkConfig(*input.Config); err != nil {
			return nil, err
		}
		doc.Config = *input.Config
	}

	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if err := s.elements.PutElements(ctx, elementKey, input.Elements); err != nil {
		return nil, err
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ChunkInput represents the input for a chunking run
type ChunkInput struct {
	// WorkspaceID scopes the run to the caller's workspace. Internal callers
	// (the background worker) leave it empty to bypass the ownership check.
	WorkspaceID string
	DocumentID  string
	// Config overrides the document's stored config for this and later runs.
	Config *domain.ChunkConfig
	// PreserveManualEdits carries manually edited chunks of the current
	// generation into the new one.
	PreserveManualEdits bool
	// ExpectedGeneration, when set, aborts the run with
	// document_already_finished if the document has advanced past it. Used by
	// the background worker to drop stale jobs.
	ExpectedGeneration int64
	// GenerateEmbeddings embeds every chunk before publishing.
	GenerateEmbeddings bool
}

// ChunkOutput is the published result of a chunking run
type ChunkOutput struct {
	Document *domain.Document
	Chunks   []domain.Chunk
	Warnings []domain.ChunkWarning
}

// Chunk runs the pipeline for a document and atomically publishes the new
// chunk generation. Readers see the previous generation until the swap
// completes; a failed run leaves it untouched.
func (s *ChunkingService) Chunk(ctx context.Context, input ChunkInput) (*ChunkOutput, error) {
	doc, err := s.getOwnedDocument(ctx, input.WorkspaceID, input.DocumentID)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ChunkingService.Chunk", telemetry.SpanAttributes{
		WorkspaceID: doc.WorkspaceID,
		DocumentID:  doc.ID,
		Generation:  doc.Generation + 1,
		Operation:   "chunk",
	})
	defer span.End()

	if doc.Status == domain.DocumentStatusDeleted {
		return nil, domain.ErrDocumentDeleted
	}
	if doc.ElementKey == "" {
		return nil, domain.ErrDatasetNotInitialized
	}
	if input.ExpectedGeneration > 0 && doc.Generation >= input.ExpectedGeneration {
		return nil, domain.ErrDocumentAlreadyFinished
	}

	cfg := doc.Config
	if input.Config != nil {
		cfg = *input.Config
	}
	if err := domain.ValidateChunkConfig(cfg); err != nil {
		return nil, err
	}

	revertStatus, err := s.markBusy(ctx, doc)
	if err != nil {
		return nil, err
	}
	priorGeneration := doc.Generation

	runCtx, cancel := context.WithCancel(ctx)
	run := &chunkRun{cancel: cancel}
	s.takeOver(doc.ID, run)
	defer func() {
		cancel()
		s.release(doc.ID, run)
	}()

	out, err := s.runAndPublish(runCtx, doc, cfg, input)
	if err != nil {
		// A run superseded by a newer one must not revert: the newer run owns
		// the document's status now.
		if runCtx.Err() == nil || ctx.Err() != nil {
			s.revert(doc.ID, priorGeneration, revertStatus)
		}
		return nil, err
	}

	return out, nil
}

// markBusy transitions the document into its busy status. A document already
// mid-run stays busy; the newest-wins takeover handles the old run.
func (s *ChunkingService) markBusy(ctx context.Context, doc *domain.Document) (domain.DocumentStatus, error) {
	var busy, revert domain.DocumentStatus
	switch doc.Status {
	case domain.DocumentStatusUnchunked, domain.DocumentStatusChunking:
		busy, revert = domain.DocumentStatusChunking, domain.DocumentStatusUnchunked
	case domain.DocumentStatusChunked, domain.DocumentStatusRechunking:
		busy, revert = domain.DocumentStatusRechunking, domain.DocumentStatusChunked
	default:
		return "", domain.NewDomainError(domain.ErrCodeInvalidOperation,
			fmt.Sprintf("document in status %s cannot be chunked", doc.Status))
	}

	if doc.Status != busy {
		doc.Status = busy
		doc.UpdatedAt = time.Now().UTC()
		if err := s.documentRepo.Update(ctx, doc); err != nil {
			return "", err
		}
	}

	return revert, nil
}

func (s *ChunkingService) runAndPublish(ctx context.Context, doc *domain.Document, cfg domain.ChunkConfig, input ChunkInput) (*ChunkOutput, error) {
	elements, err := s.elements.GetElements(ctx, doc.ElementKey)
	if err != nil {
		return nil, err
	}

	var fields []domain.MetadataField
	if s.metadataRepo != nil {
		fields, err = s.metadataRepo.List(ctx, doc.WorkspaceID)
		if err != nil {
			return nil, err
		}
	}

	generation := doc.Generation + 1
	result, err := s.pipeline.Run(ctx, chunker.RunInput{
		Document:       *doc,
		Elements:       elements,
		Config:         cfg,
		Generation:     generation,
		MetadataFields: fields,
		Now:            time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	chunks := result.Chunks
	for i := range chunks {
		chunks[i].ID = s.uuidGen.NewString()
	}

	if input.PreserveManualEdits && doc.Generation > 0 {
		chunks, err = s.carryEditedChunks(ctx, doc, generation, chunks)
		if err != nil {
			return nil, err
		}
	}

	if input.GenerateEmbeddings && s.embedder != nil {
		for i := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			embedding, err := generateEmbeddingWithRetry(ctx, s.embedder, embeddingText(chunks[i]))
			if err != nil {
				return nil, fmt.Errorf("failed to embed chunk %d: %w", chunks[i].SequenceIndex, err)
			}
			chunks[i].Embedding = embedding
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc.Generation = generation
	doc.Config = cfg
	doc.Status = domain.DocumentStatusChunked
	doc.UpdatedAt = time.Now().UTC()

	publish := func(docRepo DocumentRepositoryInterface, chunkRepo ChunkRepositoryInterface) error {
		if err := chunkRepo.ReplaceGeneration(ctx, doc.ID, generation, chunks); err != nil {
			return err
		}
		return docRepo.Update(ctx, doc)
	}

	if s.tx != nil {
		err = s.tx.WithTx(ctx, func(repos TxRepositories) error {
			return publish(repos.Documents(), repos.Chunks())
		})
	} else {
		err = publish(s.documentRepo, s.chunkRepo)
	}
	if err != nil {
		return nil, err
	}

	return &ChunkOutput{Document: doc, Chunks: chunks, Warnings: result.Warnings}, nil
}

// carryEditedChunks appends manually edited chunks of the outgoing generation
// to the new one, re-sequenced after the regenerated chunks.
func (s *ChunkingService) carryEditedChunks(ctx context.Context, doc *domain.Document, generation int64, chunks []domain.Chunk) ([]domain.Chunk, error) {
	edited, err := s.chunkRepo.ListEdited(ctx, doc.ID, doc.Generation)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, e := range edited {
		e.ID = s.uuidGen.NewString()
		e.Generation = generation
		e.SequenceIndex = len(chunks)
		e.UpdatedAt = now
		chunks = append(chunks, e)
	}

	return chunks, nil
}

func (s *ChunkingService) takeOver(documentID string, run *chunkRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.running[documentID]; ok {
		prev.cancel()
	}
	s.running[documentID] = run
}

func (s *ChunkingService) release(documentID string, run *chunkRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Only remove our own registration; a newer run may have replaced it.
	if s.running[documentID] == run {
		delete(s.running, documentID)
	}
}

// revert restores the document's pre-run status after a failed run,
// best-effort: the document may legitimately have moved on.
func (s *ChunkingService) revert(documentID string, priorGeneration int64, status domain.DocumentStatus) {
	ctx, cancelRevert := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelRevert()

	current, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil || current.Generation != priorGeneration {
		return
	}
	current.Status = status
	current.UpdatedAt = time.Now().UTC()
	_ = s.documentRepo.Update(ctx, current)
}

// getOwnedDocument loads a document and enforces workspace ownership. An
// empty workspaceID marks a trusted internal caller (the background worker).
// A document owned by another workspace is reported as not found rather than
// forbidden, so tenants cannot confirm each other's document ids.
func (s *ChunkingService) getOwnedDocument(ctx context.Context, workspaceID, id string) (*domain.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workspaceID != "" && doc.WorkspaceID != workspaceID {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// GetDocument retrieves a document owned by the workspace. Deleted documents
// are reported as not found.
func (s *ChunkingService) GetDocument(ctx context.Context, workspaceID, id string) (*domain.Document, error) {
	doc, err := s.getOwnedDocument(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.DocumentStatusDeleted {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// ElementsDownloadURL returns a short-lived presigned URL for the document's
// stored element stream, so an operator can inspect exactly what the pipeline
// chunks.
func (s *ChunkingService) ElementsDownloadURL(ctx context.Context, workspaceID, id string) (string, error) {
	doc, err := s.getOwnedDocument(ctx, workspaceID, id)
	if err != nil {
		return "", err
	}
	if doc.Status == domain.DocumentStatusDeleted {
		return "", domain.ErrDocumentNotFound
	}
	if doc.ElementKey == "" {
		return "", domain.ErrDatasetNotInitialized
	}
	return s.elements.DownloadURL(ctx, doc.ElementKey)
}

type ListDocumentsInput struct {
	WorkspaceID string
	Cursor      string
	Limit       int
}

type ListDocumentsOutput struct {
	Items   []*domain.Document
	Cursor  string
	HasMore bool
}

// ListDocuments retrieves documents in a workspace with cursor pagination
func (s *ChunkingService) ListDocuments(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.documentRepo.ListByWorkspaceWithCursor(ctx, input.WorkspaceID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListDocumentsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

type ListChunksInput struct {
	WorkspaceID string
	DocumentID  string
	Cursor      string
	Limit       int
}

type ListChunksOutput struct {
	Items      []domain.Chunk
	Generation int64
	Cursor     string
	HasMore    bool
}

// ListChunks retrieves the current generation's chunks for a document
func (s *ChunkingService) ListChunks(ctx context.Context, input ListChunksInput) (*ListChunksOutput, error) {
	doc, err := s.getOwnedDocument(ctx, input.WorkspaceID, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.DocumentStatusDeleted {
		return nil, domain.ErrDocumentNotFound
	}
	if doc.Generation == 0 {
		return &ListChunksOutput{}, nil
	}

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	result, err := s.chunkRepo.ListByGenerationWithCursor(ctx, doc.ID, doc.Generation, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListChunksOutput{
		Items:      result.Items,
		Generation: doc.Generation,
		Cursor:     result.NextCursor,
		HasMore:    result.HasMore,
	}, nil
}

// UpdateChunkText replaces a chunk's text with a manual edit. Edited chunks
// are flagged so re-chunking can preserve them on request. A chunk whose
// document belongs to another workspace is reported as not found.
func (s *ChunkingService) UpdateChunkText(ctx context.Context, workspaceID, chunkID, text string) (*domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "chunk text cannot be empty")
	}

	chunk, err := s.chunkRepo.GetByID(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.getOwnedDocument(ctx, workspaceID, chunk.DocumentID); err != nil {
		return nil, domain.ErrChunkNotFound
	}

	chunk.Text = text
	chunk.CharCount = utf8.RuneCountInString(text)
	chunk.Edited = true
	chunk.Embedding = nil // stale after a text change
	chunk.UpdatedAt = time.Now().UTC()

	if err := s.chunkRepo.Update(ctx, chunk); err != nil {
		return nil, err
	}

	return chunk, nil
}

// DeleteDocument marks a document deleted and removes its chunks and stored
// element stream.
func (s *ChunkingService) DeleteDocument(ctx context.Context, workspaceID, id string) error {
	doc, err := s.getOwnedDocument(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if !doc.CanTransition(domain.DocumentStatusDeleted) {
		return domain.ErrDocumentDeleted
	}

	doc.Status = domain.DocumentStatusDeleted
	doc.UpdatedAt = time.Now().UTC()
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return err
	}

	if err := s.chunkRepo.DeleteByDocument(ctx, id); err != nil {
		return err
	}

	if doc.ElementKey != "" {
		if err := s.elements.DeleteElements(ctx, doc.ElementKey); err != nil {
			return err
		}
	}

	return nil
}

// csv import columns
const (
	importColumnContent  = "content"
	importColumnKeywords = "keywords"
)

// ImportChunksCSV bulk-creates chunks from a CSV stream with a header row. The
// content column is required; keywords, when present, are stored as chunk
// metadata. Imported chunks count as manual edits.
func (s *ChunkingService) ImportChunksCSV(ctx context.Context, workspaceID, documentID string, r io.Reader) ([]domain.Chunk, error) {
	doc, err := s.getOwnedDocument(ctx, workspaceID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.DocumentStatusDeleted {
		return nil, domain.ErrDocumentDeleted
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read CSV header", err)
	}

	contentIdx, keywordsIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case importColumnContent:
			contentIdx = i
		case importColumnKeywords:
			keywordsIdx = i
		}
	}
	if contentIdx < 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "CSV header must include a content column")
	}

	generation := doc.Generation
	if generation == 0 {
		generation = 1
	}

	offset, err := s.chunkRepo.CountByGeneration(ctx, documentID, generation)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var chunks []domain.Chunk
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
				fmt.Sprintf("malformed CSV row %d", row), err)
		}

		content := strings.TrimSpace(record[contentIdx])
		if content == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation,
				fmt.Sprintf("CSV row %d has empty content", row))
		}

		meta := map[string]any{
			domain.MetadataDocumentName: doc.Name,
			domain.MetadataSource:       "csv_import",
		}
		if keywordsIdx >= 0 && keywordsIdx < len(record) {
			if kw := strings.TrimSpace(record[keywordsIdx]); kw != "" {
				meta["keywords"] = splitKeywords(kw)
			}
		}

		chunks = append(chunks, domain.Chunk{
			ID:            s.uuidGen.NewString(),
			DocumentID:    documentID,
			Generation:    generation,
			SequenceIndex: offset + len(chunks),
			Text:          content,
			CharCount:     utf8.RuneCountInString(content),
			Metadata:      meta,
			Edited:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if len(chunks) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "CSV contains no chunk rows")
	}

	if err := s.chunkRepo.CreateBatch(ctx, chunks); err != nil {
		return nil, err
	}

	if doc.Generation == 0 {
		doc.Generation = generation
		doc.Status = domain.DocumentStatusChunked
		doc.UpdatedAt = now
		if err := s.documentRepo.Update(ctx, doc); err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

func splitKeywords(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// embeddingText is the text sent to the embedding model: the contextual
// prefix, when present, is prepended so retrieval sees the same context the
// reader does.
func embeddingText(c domain.Chunk) string {
	if c.Prefix != "" {
		return c.Prefix + "\n\n" + c.Text
	}
	return c.Text
}
