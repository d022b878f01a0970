package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CampaignRepository struct {
	pool *pgxpool.Pool
}

func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO campaigns (id, brand, keywords, platforms, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		campaign.ID, campaign.Brand, campaign.Keywords, campaign.Platforms, campaign.CreatedAt, campaign.UpdatedAt,
	)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.pool.QueryRow(ctx,
		`SELECT id, brand, keywords, platforms, created_at, updated_at FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Brand, &c.Keywords, &c.Platforms, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]*domain.Campaign, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, brand, keywords, platforms, created_at, updated_at FROM campaigns ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.ID, &c.Brand, &c.Keywords, &c.Platforms, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	campaign.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET brand = $1, keywords = $2, platforms = $3, updated_at = $4 WHERE id = $5`,
		campaign.Brand, campaign.Keywords, campaign.Platforms, campaign.UpdatedAt, campaign.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM campaigns WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}
