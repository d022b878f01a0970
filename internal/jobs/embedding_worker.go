package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
)

// MaxRetries is the maximum number of retries for a failed embedding job.
const MaxRetries = 3

// EmbeddingJobRepository defines the interface for embedding job
// persistence.
type EmbeddingJobRepository interface {
	// ClaimPending atomically claims pending jobs for processing.
	ClaimPending(ctx context.Context, limit int) ([]*domain.EmbeddingJob, error)

	// UpdateStatus updates the status of an embedding job.
	UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job.
	IncrementRetries(ctx context.Context, id string) error
}

// InsightEmbedder generates and stores the embedding for a job's insight.
// The implementation marks the job completed in the same transaction as
// the vector write.
type InsightEmbedder interface {
	ProcessJob(ctx context.Context, job *domain.EmbeddingJob) error
}

// EmbeddingWorker processes insight embedding jobs.
type EmbeddingWorker struct {
	repo      EmbeddingJobRepository
	embedder  InsightEmbedder
	batchSize int
}

// NewEmbeddingWorker creates a new EmbeddingWorker instance.
func NewEmbeddingWorker(repo EmbeddingJobRepository, embedder InsightEmbedder) *EmbeddingWorker {
	return &EmbeddingWorker{
		repo:      repo,
		embedder:  embedder,
		batchSize: 100,
	}
}

// ProcessJobs implements the JobProcessor interface.
func (w *EmbeddingWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("processing %d pending embedding jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *EmbeddingWorker) processJob(ctx context.Context, job *domain.EmbeddingJob) error {
	if job.InsightID == "" {
		return w.repo.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusFailed, "job has no insight_id")
	}

	if err := w.embedder.ProcessJob(ctx, job); err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	log.Printf("job %s completed for insight %s", job.ID, job.InsightID)
	return nil
}

// handleJobFailure requeues a failed job until MaxRetries is exhausted.
func (w *EmbeddingWorker) handleJobFailure(ctx context.Context, job *domain.EmbeddingJob, jobErr error) error {
	log.Printf("job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
