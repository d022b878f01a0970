//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContentItem(ctx context.Context, t *testing.T, pool *pgxpool.Pool, campaignID, runID, externalID string) domain.ContentItem {
	item := newContentFixture(campaignID, runID, externalID, "content for "+externalID)
	require.NoError(t, NewContentRepository(pool).UpsertItems(ctx, []domain.ContentItem{item}))
	return item
}

func newInsightFixture(campaignID, runID, contentID string) *domain.Insight {
	return &domain.Insight{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		RunID:      runID,
		ContentID:  contentID,
		Sentiment:  domain.SentimentNegative,
		PainPoints: []string{"battery life"},
		Summary:    "Users report the battery draining overnight.",
		Confidence: 0.85,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestInsightRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	insightRepo := NewInsightRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateAnalyzing)
	item := setupContentItem(ctx, t, pool, campaign.ID, run.ID, "t3_a")

	insight := newInsightFixture(campaign.ID, run.ID, item.ID)
	require.NoError(t, insightRepo.CreateInsight(ctx, insight))

	retrieved, err := insightRepo.GetByID(ctx, insight.ID)
	require.NoError(t, err)
	assert.Equal(t, insight.ContentID, retrieved.ContentID)
	assert.Equal(t, domain.SentimentNegative, retrieved.Sentiment)
	assert.Equal(t, []string{"battery life"}, retrieved.PainPoints)
	assert.InDelta(t, 0.85, retrieved.Confidence, 0.001)
}

func TestInsightRepository_Create_OnePerContentItem(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	insightRepo := NewInsightRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateAnalyzing)
	item := setupContentItem(ctx, t, pool, campaign.ID, run.ID, "t3_a")

	first := newInsightFixture(campaign.ID, run.ID, item.ID)
	require.NoError(t, insightRepo.CreateInsight(ctx, first))

	second := newInsightFixture(campaign.ID, run.ID, item.ID)
	require.NoError(t, insightRepo.CreateInsight(ctx, second))

	insights, err := insightRepo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, first.ID, insights[0].ID)
}

func TestInsightRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	insightRepo := NewInsightRepository(pool)

	_, err := insightRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrInsightNotFound)
}

func TestInsightRepository_GetByIDs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	insightRepo := NewInsightRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateAnalyzing)

	itemA := setupContentItem(ctx, t, pool, campaign.ID, run.ID, "t3_a")
	itemB := setupContentItem(ctx, t, pool, campaign.ID, run.ID, "t3_b")

	insightA := newInsightFixture(campaign.ID, run.ID, itemA.ID)
	insightB := newInsightFixture(campaign.ID, run.ID, itemB.ID)
	require.NoError(t, insightRepo.CreateInsight(ctx, insightA))
	require.NoError(t, insightRepo.CreateInsight(ctx, insightB))

	insights, err := insightRepo.GetByIDs(ctx, []string{insightA.ID, insightB.ID})
	require.NoError(t, err)
	assert.Len(t, insights, 2)

	empty, err := insightRepo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInsightRepository_AppendEmbedding_Versions(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	insightRepo := NewInsightRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateAnalyzing)
	item := setupContentItem(ctx, t, pool, campaign.ID, run.ID, "t3_a")

	insight := newInsightFixture(campaign.ID, run.ID, item.ID)
	require.NoError(t, insightRepo.CreateInsight(ctx, insight))

	now := time.Now().UTC().Truncate(time.Microsecond)

	v1, err := insightRepo.AppendEmbedding(ctx, insight.ID, uuid.NewString(), makeEmbedding(1), now)
	require.NoError(t, err)
	assert.Equal(t, 1, v1)

	v2, err := insightRepo.AppendEmbedding(ctx, insight.ID, uuid.NewString(), makeEmbedding(2), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	latest, err := insightRepo.LatestEmbedding(ctx, insight.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Len(t, latest.Embedding, 1536)
}

func TestInsightRepository_LatestEmbedding_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	insightRepo := NewInsightRepository(pool)

	_, err := insightRepo.LatestEmbedding(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrInsightNotFound)
}

// makeEmbedding builds a unit-length 1536-dim vector pointing along the
// given axis, so cosine similarity between distinct axes is zero.
func makeEmbedding(axis int) []float32 {
	vec := make([]float32, 1536)
	vec[axis%1536] = 1
	return vec
}
