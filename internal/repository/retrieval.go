package repository

import (
	"context"

	"github.com/brandpulse-ai/brandpulse/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// RetrievalRepository implements vector search over insight embeddings.
type RetrievalRepository struct {
	pool *pgxpool.Pool
}

func NewRetrievalRepository(pool *pgxpool.Pool) *RetrievalRepository {
	return &RetrievalRepository{pool: pool}
}

// SearchInsights returns the campaign's insights ranked by cosine
// similarity to the query embedding. Results below the threshold are cut
// at the database: low-similarity context is worse than no context. Each
// insight contributes only its latest embedding version.
func (r *RetrievalRepository) SearchInsights(ctx context.Context, campaignID string, embedding []float32, threshold float32, limit int) ([]*service.RetrievedInsight, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx,
		`WITH latest AS (
			SELECT DISTINCT ON (insight_id) insight_id, embedding
			FROM insight_embeddings
			ORDER BY insight_id, version DESC
		)
		SELECT i.id, i.summary, i.sentiment, i.pain_points,
		       1 - (l.embedding <=> $1) AS score
		FROM insights i
		JOIN latest l ON l.insight_id = i.id
		WHERE i.campaign_id = $2
		  AND 1 - (l.embedding <=> $1) >= $3
		ORDER BY score DESC
		LIMIT $4`,
		vec, campaignID, threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*service.RetrievedInsight, 0)
	for rows.Next() {
		var res service.RetrievedInsight
		if err := rows.Scan(&res.ID, &res.Summary, &res.Sentiment, &res.PainPoints, &res.Score); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}

	return results, rows.Err()
}
