package domain

import (
	"fmt"
	"time"
)

// EmbeddingJobStatus represents the status of an embedding job
type EmbeddingJobStatus string

const (
	EmbeddingJobStatusPending    EmbeddingJobStatus = "pending"
	EmbeddingJobStatusProcessing EmbeddingJobStatus = "processing"
	EmbeddingJobStatusCompleted  EmbeddingJobStatus = "completed"
	EmbeddingJobStatusFailed     EmbeddingJobStatus = "failed"
)

// EmbeddingJob represents an async embedding generation job for an insight.
// Created by the Analyst stage, consumed by the background worker.
type EmbeddingJob struct {
	ID          string
	InsightID   string
	Status      EmbeddingJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewEmbeddingJob creates a new EmbeddingJob instance
func NewEmbeddingJob(id, insightID string, status EmbeddingJobStatus, createdAt time.Time) *EmbeddingJob {
	return &EmbeddingJob{
		ID:        id,
		InsightID: insightID,
		Status:    status,
		CreatedAt: createdAt,
	}
}

// ValidateEmbeddingJob validates an EmbeddingJob instance
func ValidateEmbeddingJob(j *EmbeddingJob) error {
	if j == nil {
		return fmt.Errorf("embedding job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("embedding job ID is required")
	}

	if j.InsightID == "" {
		return fmt.Errorf("embedding job InsightID is required")
	}

	if !isValidEmbeddingJobStatus(j.Status) {
		return fmt.Errorf("embedding job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("embedding job Retries cannot be negative")
	}

	return nil
}

// isValidEmbeddingJobStatus checks if an EmbeddingJobStatus is valid
func isValidEmbeddingJobStatus(s EmbeddingJobStatus) bool {
	switch s {
	case EmbeddingJobStatusPending, EmbeddingJobStatusProcessing,
		EmbeddingJobStatusCompleted, EmbeddingJobStatusFailed:
		return true
	}
	return false
}
