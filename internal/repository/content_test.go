//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentFixture(campaignID, runID, externalID, rawText string) domain.ContentItem {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.ContentItem{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		RunID:      runID,
		Platform:   "reddit",
		ExternalID: externalID,
		ContentKey: domain.ContentKey("reddit", externalID, rawText),
		RawText:    rawText,
		FetchedAt:  now,
		CreatedAt:  now,
	}
}

func TestContentRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	contentRepo := NewContentRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateScouting)

	item := newContentFixture(campaign.ID, run.ID, "t3_abc", "battery drains overnight")
	require.NoError(t, contentRepo.UpsertItems(ctx, []domain.ContentItem{item}))

	retrieved, err := contentRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ContentKey, retrieved.ContentKey)
	assert.Equal(t, "battery drains overnight", retrieved.RawText)
	assert.Empty(t, retrieved.CleanText)
	assert.Nil(t, retrieved.CleanedAt)
}

func TestContentRepository_Upsert_DuplicateKeyIsNoOp(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	contentRepo := NewContentRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateScouting)

	original := newContentFixture(campaign.ID, run.ID, "t3_abc", "battery drains overnight")
	require.NoError(t, contentRepo.UpsertItems(ctx, []domain.ContentItem{original}))

	duplicate := newContentFixture(campaign.ID, run.ID, "t3_abc", "battery drains overnight")
	require.NoError(t, contentRepo.UpsertItems(ctx, []domain.ContentItem{duplicate}))

	items, err := contentRepo.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, original.ID, items[0].ID)
}

func TestContentRepository_MarkCleaned(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	contentRepo := NewContentRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateCleaning)

	item := newContentFixture(campaign.ID, run.ID, "t3_abc", "my email is alice@example.com and the battery is bad")
	require.NoError(t, contentRepo.UpsertItems(ctx, []domain.ContentItem{item}))

	cleanedAt := time.Now().UTC().Truncate(time.Microsecond)
	item.CleanText = "my email is [EMAIL] and the battery is bad"
	item.RedactionFlags = []string{"email"}
	item.QualityScore = 0.8
	item.CleanedAt = &cleanedAt
	require.NoError(t, contentRepo.MarkCleaned(ctx, []domain.ContentItem{item}))

	retrieved, err := contentRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "my email is [EMAIL] and the battery is bad", retrieved.CleanText)
	assert.Equal(t, []string{"email"}, retrieved.RedactionFlags)
	assert.InDelta(t, 0.8, retrieved.QualityScore, 0.001)
	require.NotNil(t, retrieved.CleanedAt)
}

func TestContentRepository_MarkCleaned_CleanedContentIsImmutable(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	contentRepo := NewContentRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	run := setupRun(ctx, t, NewRunRepository(pool), campaign.ID, domain.RunStateCleaning)

	item := newContentFixture(campaign.ID, run.ID, "t3_abc", "screen flickers at low brightness")
	require.NoError(t, contentRepo.UpsertItems(ctx, []domain.ContentItem{item}))

	cleanedAt := time.Now().UTC().Truncate(time.Microsecond)
	item.CleanText = "screen flickers at low brightness"
	item.QualityScore = 0.9
	item.CleanedAt = &cleanedAt
	require.NoError(t, contentRepo.MarkCleaned(ctx, []domain.ContentItem{item}))

	item.CleanText = "rewritten"
	require.NoError(t, contentRepo.MarkCleaned(ctx, []domain.ContentItem{item}))

	retrieved, err := contentRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "screen flickers at low brightness", retrieved.CleanText)
}

func TestContentRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	contentRepo := NewContentRepository(pool)

	_, err := contentRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestContentRepository_ListByRun(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	contentRepo := NewContentRepository(pool)
	campaign := setupCampaign(ctx, t, pool)
	runRepo := NewRunRepository(pool)
	run := setupRun(ctx, t, runRepo, campaign.ID, domain.RunStateScouting)
	other := setupRun(ctx, t, runRepo, campaign.ID, domain.RunStateDone)

	first := newContentFixture(campaign.ID, run.ID, "t3_a", "first post")
	second := newContentFixture(campaign.ID, run.ID, "t3_b", "second post")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	elsewhere := newContentFixture(campaign.ID, other.ID, "t3_c", "other run post")

	require.NoError(t, contentRepo.UpsertItems(ctx, []domain.ContentItem{first, second, elsewhere}))

	items, err := contentRepo.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}
