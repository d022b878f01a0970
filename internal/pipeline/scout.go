package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/google/uuid"
)

// Scout is the discovery stage: it fetches raw content for a campaign's
// keywords across its platforms, dedupes by content identity, and
// optionally archives the raw payloads.
type Scout struct {
	collector Collector
	archive   Archiver
}

// NewScout creates a Scout node. The archiver may be nil.
func NewScout(collector Collector, archive Archiver) *Scout {
	return &Scout{collector: collector, archive: archive}
}

// Run fetches and dedupes content for the campaign.
func (s *Scout) Run(ctx context.Context, campaign *domain.Campaign, runID string) ([]domain.ContentItem, Diagnostics, error) {
	query := strings.TrimSpace(campaign.Brand + " " + strings.Join(campaign.Keywords, " "))

	seen := make(map[string]struct{})
	var items []domain.ContentItem
	var diag Diagnostics
	now := time.Now().UTC()

	for _, platform := range campaign.Platforms {
		raw, err := s.collector.Fetch(ctx, query, platform)
		if err != nil {
			return nil, diag, fmt.Errorf("failed to fetch from %s: %w", platform, err)
		}

		for _, r := range raw {
			diag.ItemsIn++
			if strings.TrimSpace(r.Text) == "" {
				diag.Dropped++
				continue
			}

			key := domain.ContentKey(platform, r.ExternalID, r.Text)
			if _, dup := seen[key]; dup {
				diag.Dropped++
				continue
			}
			seen[key] = struct{}{}

			item := domain.ContentItem{
				ID:         uuid.NewString(),
				CampaignID: campaign.ID,
				RunID:      runID,
				Platform:   platform,
				ExternalID: r.ExternalID,
				ContentKey: key,
				RawText:    r.Text,
				FetchedAt:  r.PostedAt,
				CreatedAt:  now,
			}
			if item.FetchedAt.IsZero() {
				item.FetchedAt = now
			}

			items = append(items, item)
			s.archiveItem(ctx, campaign.ID, runID, key, r)
		}
	}

	diag.ItemsOut = len(items)
	return items, diag, nil
}

// archiveItem stores the raw payload. Archive failures are logged but do
// not fail the stage; the canonical copy is the database row.
func (s *Scout) archiveItem(ctx context.Context, campaignID, runID, key string, r RawItem) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(r)
	if err != nil {
		log.Printf("scout: failed to marshal raw item %s: %v", key, err)
		return
	}

	if err := s.archive.ArchiveRaw(ctx, campaignID, runID, key, payload); err != nil {
		log.Printf("scout: failed to archive raw item %s: %v", key, err)
	}
}
