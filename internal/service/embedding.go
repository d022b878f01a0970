package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/google/uuid"
)

// InsightEmbeddingService generates embeddings for insights. Embeddings
// are versioned and immutable: processing the same insight again appends
// version n+1 instead of overwriting.
type InsightEmbeddingService struct {
	client   EmbeddingClient
	insights InsightWriter
	tx       TxRunner
}

// NewInsightEmbeddingService creates a new InsightEmbeddingService.
func NewInsightEmbeddingService(client EmbeddingClient, insights InsightWriter, tx TxRunner) *InsightEmbeddingService {
	return &InsightEmbeddingService{
		client:   client,
		insights: insights,
		tx:       tx,
	}
}

// ProcessJob generates and stores the embedding for a job's insight, then
// marks the job completed. The vector append and the job completion commit
// together, so a crash mid-way leaves the job claimable instead of a
// completed job without a vector.
func (s *InsightEmbeddingService) ProcessJob(ctx context.Context, job *domain.EmbeddingJob) error {
	insight, err := s.insights.GetByID(ctx, job.InsightID)
	if err != nil {
		return err
	}

	text := buildInsightEmbeddingText(insight)
	embedding, err := s.client.GenerateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	return s.tx.WithTx(ctx, func(repos TxRepositories) error {
		if _, err := repos.Insights().AppendEmbedding(ctx, insight.ID, uuid.NewString(), embedding, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
		return repos.EmbeddingJobs().UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusCompleted, "")
	})
}

// buildInsightEmbeddingText assembles the text to embed from the
// insight's summary, sentiment, and pain point tags.
func buildInsightEmbeddingText(i *domain.Insight) string {
	var parts []string

	if i.Summary != "" {
		parts = append(parts, i.Summary)
	}
	if i.Sentiment != "" {
		parts = append(parts, fmt.Sprintf("Sentiment: %s", i.Sentiment))
	}
	if len(i.PainPoints) > 0 {
		parts = append(parts, fmt.Sprintf("Pain points: %s", strings.Join(i.PainPoints, ", ")))
	}

	return strings.Join(parts, "\n\n")
}
