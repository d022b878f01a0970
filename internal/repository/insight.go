package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type InsightRepository struct {
	db dbtx
}

func NewInsightRepository(pool *pgxpool.Pool) *InsightRepository {
	return &InsightRepository{db: pool}
}

func NewInsightRepositoryWithTx(tx pgx.Tx) *InsightRepository {
	return &InsightRepository{db: tx}
}

// CreateInsight persists an analyst insight. One insight per content item:
// a resumed run re-analyzing the same item is a no-op.
func (r *InsightRepository) CreateInsight(ctx context.Context, insight *domain.Insight) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO insights (id, campaign_id, run_id, content_id, sentiment, pain_points, summary, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (content_id) DO NOTHING`,
		insight.ID, insight.CampaignID, insight.RunID, insight.ContentID, insight.Sentiment, insight.PainPoints, insight.Summary, insight.Confidence, insight.CreatedAt,
	)
	return err
}

func (r *InsightRepository) GetByID(ctx context.Context, id string) (*domain.Insight, error) {
	var i domain.Insight
	err := r.db.QueryRow(ctx,
		`SELECT id, campaign_id, run_id, content_id, sentiment, pain_points, summary, confidence, created_at
		 FROM insights WHERE id = $1`,
		id,
	).Scan(&i.ID, &i.CampaignID, &i.RunID, &i.ContentID, &i.Sentiment, &i.PainPoints, &i.Summary, &i.Confidence, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInsightNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *InsightRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Insight, error) {
	if len(ids) == 0 {
		return []*domain.Insight{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, campaign_id, run_id, content_id, sentiment, pain_points, summary, confidence, created_at
		 FROM insights WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInsightRows(rows)
}

func (r *InsightRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.Insight, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, campaign_id, run_id, content_id, sentiment, pain_points, summary, confidence, created_at
		 FROM insights WHERE campaign_id = $1 ORDER BY created_at DESC`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInsightRows(rows)
}

// AppendEmbedding writes the next embedding version for an insight.
// Versions are never updated in place: regeneration appends, readers keep
// seeing a consistent vector for as long as they hold the old version.
func (r *InsightRepository) AppendEmbedding(ctx context.Context, insightID, embeddingID string, embedding []float32, createdAt time.Time) (int, error) {
	var version int
	err := r.db.QueryRow(ctx,
		`INSERT INTO insight_embeddings (id, insight_id, version, embedding, created_at)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(version), 0) + 1 FROM insight_embeddings WHERE insight_id = $2), $3, $4)
		 RETURNING version`,
		embeddingID, insightID, pgvector.NewVector(embedding), createdAt,
	).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (r *InsightRepository) LatestEmbedding(ctx context.Context, insightID string) (*domain.InsightEmbedding, error) {
	var e domain.InsightEmbedding
	var vec pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT id, insight_id, version, embedding, created_at
		 FROM insight_embeddings WHERE insight_id = $1 ORDER BY version DESC LIMIT 1`,
		insightID,
	).Scan(&e.ID, &e.InsightID, &e.Version, &vec, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInsightNotFound
		}
		return nil, err
	}
	e.Embedding = vec.Slice()
	return &e, nil
}

func scanInsightRows(rows pgx.Rows) ([]*domain.Insight, error) {
	var results []*domain.Insight
	for rows.Next() {
		var i domain.Insight
		if err := rows.Scan(&i.ID, &i.CampaignID, &i.RunID, &i.ContentID, &i.Sentiment, &i.PainPoints, &i.Summary, &i.Confidence, &i.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &i)
	}
	return results, rows.Err()
}
