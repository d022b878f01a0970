package service

import (
	"context"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/telemetry"
)

// RetrievedInsight is one insight returned by vector search, with its
// cosine similarity to the query.
type RetrievedInsight struct {
	ID         string
	Summary    string
	Sentiment  domain.Sentiment
	PainPoints []string
	Score      float32
}

// RetrievalRepositoryInterface defines the repository interface for vector
// search over insight embeddings.
type RetrievalRepositoryInterface interface {
	SearchInsights(ctx context.Context, campaignID string, embedding []float32, threshold float32, limit int) ([]*RetrievedInsight, error)
}

// EmbeddingClient defines the interface for generating embeddings.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// RetrieverConfig controls retrieval behavior.
type RetrieverConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for a result to
	// count as relevant. Below it, retrieval returns nothing rather than
	// padding the context with noise.
	SimilarityThreshold float32
	TopK                int
}

// DefaultRetrieverConfig returns the default retrieval configuration.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		SimilarityThreshold: 0.35,
		TopK:                5,
	}
}

// RetrieverService embeds a query and searches campaign insights for the
// most similar ones.
type RetrieverService struct {
	repo      RetrievalRepositoryInterface
	embedding EmbeddingClient
	cfg       RetrieverConfig
}

// NewRetrieverService creates a RetrieverService with the default
// configuration.
func NewRetrieverService(repo RetrievalRepositoryInterface, embedding EmbeddingClient) *RetrieverService {
	return NewRetrieverServiceWithConfig(repo, embedding, DefaultRetrieverConfig())
}

// NewRetrieverServiceWithConfig creates a RetrieverService with an explicit
// configuration.
func NewRetrieverServiceWithConfig(repo RetrievalRepositoryInterface, embedding EmbeddingClient, cfg RetrieverConfig) *RetrieverService {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultRetrieverConfig().SimilarityThreshold
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrieverConfig().TopK
	}
	return &RetrieverService{repo: repo, embedding: embedding, cfg: cfg}
}

// Retrieve returns the campaign insights most similar to the query. An
// empty result is a valid outcome: the chat service answers from it with
// an honest "nothing relevant" rather than inventing grounding.
func (s *RetrieverService) Retrieve(ctx context.Context, campaignID, query string) ([]*RetrievedInsight, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrieverService.Retrieve", telemetry.SpanAttributes{
		CampaignID: campaignID,
		Operation:  "retrieve",
	})
	defer span.End()

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return s.repo.SearchInsights(ctx, campaignID, embedding, s.cfg.SimilarityThreshold, s.cfg.TopK)
}
