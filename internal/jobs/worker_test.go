package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
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

// MockEmbeddingJobRepository is a mock implementation of EmbeddingJobRepository
type MockEmbeddingJobRepository struct {
	mock.Mock
}

func (m *MockEmbeddingJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.EmbeddingJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmbeddingJob), args.Error(1)
}

func (m *MockEmbeddingJobRepository) UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockEmbeddingJobRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockInsightEmbedder is a mock implementation of InsightEmbedder
type MockInsightEmbedder struct {
	mock.Mock
}

func (m *MockInsightEmbedder) ProcessJob(ctx context.Context, job *domain.EmbeddingJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("embedding", mockProcessor, 100*time.Millisecond)

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

	worker := NewWorker("embedding", mockProcessor, 100*time.Millisecond)

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

func pendingJob(id, insightID string, retries int32) *domain.EmbeddingJob {
	return &domain.EmbeddingJob{
		ID:        id,
		InsightID: insightID,
		Status:    domain.EmbeddingJobStatusPending,
		Retries:   retries,
	}
}

func TestEmbeddingWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockInsightEmbedder)

	mockRepo.On("ClaimPending", mock.Anything, 100).Return([]*domain.EmbeddingJob{}, nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertNotCalled(t, "ProcessJob", mock.Anything, mock.Anything)
}

func TestEmbeddingWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockInsightEmbedder)

	job := pendingJob("job-1", "ins-1", 0)

	mockRepo.On("ClaimPending", mock.Anything, 100).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessJob", mock.Anything, job).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
	// Completion is committed by the embedder's transaction; the worker
	// does not touch the job status on success.
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEmbeddingWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockInsightEmbedder)

	job := pendingJob("job-1", "ins-1", 0)

	mockRepo.On("ClaimPending", mock.Anything, 100).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessJob", mock.Anything, job).Return(errors.New("embedding failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
}

func TestEmbeddingWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockInsightEmbedder)

	job := pendingJob("job-1", "ins-1", 2)

	mockRepo.On("ClaimPending", mock.Anything, 100).Return([]*domain.EmbeddingJob{job}, nil)
	mockEmbedder.On("ProcessJob", mock.Anything, job).Return(errors.New("embedding failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertExpectations(t)
}

func TestEmbeddingWorker_ProcessJobs_JobWithoutInsightFailed(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockInsightEmbedder)

	job := pendingJob("job-1", "", 0)

	mockRepo.On("ClaimPending", mock.Anything, 100).Return([]*domain.EmbeddingJob{job}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.EmbeddingJobStatusFailed, mock.Anything).Return(nil)

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockEmbedder.AssertNotCalled(t, "ProcessJob", mock.Anything, mock.Anything)
}

func TestEmbeddingWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockEmbeddingJobRepository)
	mockEmbedder := new(MockInsightEmbedder)

	mockRepo.On("ClaimPending", mock.Anything, 100).Return(nil, errors.New("database error"))

	worker := NewEmbeddingWorker(mockRepo, mockEmbedder)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to claim pending jobs")
	mockRepo.AssertExpectations(t)
}
