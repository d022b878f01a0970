package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ContentItem is one unit of user-generated content (thread, comment,
// review) fetched by the Scout stage. CleanText stays empty until the
// Cleaner stage runs; after that the item is immutable and the Analyst
// only reads it.
type ContentItem struct {
	ID             string
	CampaignID     string
	RunID          string
	Platform       string
	ExternalID     string
	ContentKey     string
	RawText        string
	CleanText      string
	RedactionFlags []string
	QualityScore   float32
	FetchedAt      time.Time
	CleanedAt      *time.Time
	CreatedAt      time.Time
}

// ContentKey derives a stable identity for a piece of content so that a
// resumed run recognizes items it already persisted. Keyed by platform and
// external id, falling back to the raw text when the source has no id.
func ContentKey(platform, externalID, rawText string) string {
	seed := platform + "\x00" + externalID
	if externalID == "" {
		seed = platform + "\x00" + rawText
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Cleaned reports whether the Cleaner stage has processed this item.
func (c *ContentItem) Cleaned() bool {
	return c.CleanedAt != nil
}

// ValidateContentItem validates a ContentItem instance
func ValidateContentItem(c *ContentItem) error {
	if c == nil {
		return fmt.Errorf("content item cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("content item ID is required")
	}

	if c.CampaignID == "" {
		return fmt.Errorf("content item CampaignID is required")
	}

	if c.Platform == "" {
		return fmt.Errorf("content item Platform is required")
	}

	if c.ContentKey == "" {
		return fmt.Errorf("content item ContentKey is required")
	}

	if c.RawText == "" {
		return fmt.Errorf("content item RawText is required")
	}

	return nil
}
