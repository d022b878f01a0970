package repository

import (
	"context"
	"errors"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContentRepository struct {
	db dbtx
}

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: pool}
}

func NewContentRepositoryWithTx(tx pgx.Tx) *ContentRepository {
	return &ContentRepository{db: tx}
}

// UpsertItems inserts scouted items keyed by content identity. An item
// whose content key already exists is left untouched, so a resumed run
// never duplicates or overwrites what a prior attempt persisted.
func (r *ContentRepository) UpsertItems(ctx context.Context, items []domain.ContentItem) error {
	for _, it := range items {
		_, err := r.db.Exec(ctx,
			`INSERT INTO content_items (id, campaign_id, run_id, platform, external_id, content_key, raw_text, fetched_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (content_key) DO NOTHING`,
			it.ID, it.CampaignID, it.RunID, it.Platform, nullableString(it.ExternalID), it.ContentKey, it.RawText, it.FetchedAt, it.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// MarkCleaned records the Cleaner's output. Items already cleaned are
// skipped by the WHERE guard: cleaned content is immutable.
func (r *ContentRepository) MarkCleaned(ctx context.Context, items []domain.ContentItem) error {
	for _, it := range items {
		if !it.Cleaned() {
			continue
		}
		_, err := r.db.Exec(ctx,
			`UPDATE content_items
			 SET clean_text = $1, redaction_flags = $2, quality_score = $3, cleaned_at = $4
			 WHERE content_key = $5 AND cleaned_at IS NULL`,
			it.CleanText, it.RedactionFlags, it.QualityScore, it.CleanedAt, it.ContentKey,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, campaign_id, run_id, platform, external_id, content_key, raw_text, clean_text, redaction_flags, quality_score, fetched_at, cleaned_at, created_at
		 FROM content_items WHERE id = $1`,
		id,
	)
	item, err := scanContentItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *ContentRepository) ListByRun(ctx context.Context, runID string) ([]domain.ContentItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, campaign_id, run_id, platform, external_id, content_key, raw_text, clean_text, redaction_flags, quality_score, fetched_at, cleaned_at, created_at
		 FROM content_items WHERE run_id = $1 ORDER BY created_at ASC, id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanContentItem(row pgx.Row) (*domain.ContentItem, error) {
	var c domain.ContentItem
	var externalID, cleanText *string
	var qualityScore *float32
	if err := row.Scan(&c.ID, &c.CampaignID, &c.RunID, &c.Platform, &externalID, &c.ContentKey, &c.RawText, &cleanText, &c.RedactionFlags, &qualityScore, &c.FetchedAt, &c.CleanedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	if externalID != nil {
		c.ExternalID = *externalID
	}
	if cleanText != nil {
		c.CleanText = *cleanText
	}
	if qualityScore != nil {
		c.QualityScore = *qualityScore
	}
	return &c, nil
}
