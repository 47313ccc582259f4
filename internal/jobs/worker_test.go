package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/harystyleseze/privexbot-kb/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRechunkJobRepository is a mock implementation of RechunkJobRepository
type MockRechunkJobRepository struct {
	mock.Mock
}

func (m *MockRechunkJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.RechunkJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RechunkJob), args.Error(1)
}

func (m *MockRechunkJobRepository) UpdateStatus(ctx context.Context, jobID string, status domain.RechunkJobStatus, errMsg string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockRechunkJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockChunkRunner is a mock implementation of ChunkRunner
type MockChunkRunner struct {
	mock.Mock
}

func (m *MockChunkRunner) Chunk(ctx context.Context, input service.ChunkInput) (*service.ChunkOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChunkOutput), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestRechunkWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestRechunkWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.RechunkJob{}, nil)

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertNotCalled(t, "Chunk", mock.Anything, mock.Anything)
}

// TestRechunkWorker_ProcessJobs_Success tests successful job processing
func TestRechunkWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	job := &domain.RechunkJob{
		ID:                  "job-1",
		DocumentID:          "doc-1",
		TargetGeneration:    2,
		PreserveManualEdits: true,
		Status:              domain.RechunkJobStatusProcessing,
		Retries:             0,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.RechunkJob{job}, nil)
	mockRunner.On("Chunk", mock.Anything, service.ChunkInput{
		DocumentID:          "doc-1",
		PreserveManualEdits: true,
		ExpectedGeneration:  2,
		GenerateEmbeddings:  true,
	}).Return(&service.ChunkOutput{}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.RechunkJobStatusCompleted, "").Return(nil)

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestRechunkWorker_ProcessJobs_StaleJobCompletes tests that an outpaced job is
// closed without being retried
func TestRechunkWorker_ProcessJobs_StaleJobCompletes(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	job := &domain.RechunkJob{
		ID:               "job-1",
		DocumentID:       "doc-1",
		TargetGeneration: 2,
		Status:           domain.RechunkJobStatusProcessing,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.RechunkJob{job}, nil)
	mockRunner.On("Chunk", mock.Anything, mock.Anything).Return(nil, domain.ErrDocumentAlreadyFinished)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.RechunkJobStatusCompleted, "").Return(nil)

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "IncrementRetries", mock.Anything, mock.Anything)
}

// TestRechunkWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestRechunkWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	job := &domain.RechunkJob{
		ID:               "job-1",
		DocumentID:       "doc-1",
		TargetGeneration: 2,
		Status:           domain.RechunkJobStatusProcessing,
		Retries:          0,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.RechunkJob{job}, nil)
	mockRunner.On("Chunk", mock.Anything, mock.Anything).Return(nil, errors.New("element stream unreadable"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.RechunkJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestRechunkWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestRechunkWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	job := &domain.RechunkJob{
		ID:               "job-1",
		DocumentID:       "doc-1",
		TargetGeneration: 2,
		Status:           domain.RechunkJobStatusProcessing,
		Retries:          2, // Already retried twice
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.RechunkJob{job}, nil)
	mockRunner.On("Chunk", mock.Anything, mock.Anything).Return(nil, errors.New("element stream unreadable"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.RechunkJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestRechunkWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestRechunkWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	jobs := []*domain.RechunkJob{
		{ID: "job-1", DocumentID: "doc-1", TargetGeneration: 2, Status: domain.RechunkJobStatusProcessing},
		{ID: "job-2", DocumentID: "doc-2", TargetGeneration: 1, Status: domain.RechunkJobStatusProcessing},
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(jobs, nil)
	mockRunner.On("Chunk", mock.Anything, mock.MatchedBy(func(input service.ChunkInput) bool {
		return input.DocumentID == "doc-1"
	})).Return(&service.ChunkOutput{}, nil)
	mockRunner.On("Chunk", mock.Anything, mock.MatchedBy(func(input service.ChunkInput) bool {
		return input.DocumentID == "doc-2"
	})).Return(&service.ChunkOutput{}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.RechunkJobStatusCompleted, "").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-2", domain.RechunkJobStatusCompleted, "").Return(nil)

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestRechunkWorker_ProcessJobs_RepositoryError tests repository error handling
func TestRechunkWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockRechunkJobRepository)
	mockRunner := new(MockChunkRunner)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(nil, errors.New("database error"))

	worker := NewRechunkWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to claim pending jobs")
	mockRepo.AssertExpectations(t)
}
