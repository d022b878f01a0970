package service

import (
	"context"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
)

// InsightWriter is the transaction-bound slice of the insight repository
// the embedding service needs.
type InsightWriter interface {
	GetByID(ctx context.Context, id string) (*domain.Insight, error)
	AppendEmbedding(ctx context.Context, insightID, embeddingID string, embedding []float32, createdAt time.Time) (int, error)
}

// EmbeddingJobWriter is the transaction-bound slice of the embedding job
// repository.
type EmbeddingJobWriter interface {
	UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error
}

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Insights() InsightWriter
	EmbeddingJobs() EmbeddingJobWriter
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
