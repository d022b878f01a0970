package domain

import (
	"fmt"
	"time"
)

// Campaign describes one brand-monitoring effort: the brand under watch,
// the search keywords, and the platforms to collect from.
type Campaign struct {
	ID        string
	Brand     string
	Keywords  []string
	Platforms []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCampaign creates a new Campaign instance
func NewCampaign(id, brand string, keywords, platforms []string, createdAt, updatedAt time.Time) *Campaign {
	return &Campaign{
		ID:        id,
		Brand:     brand,
		Keywords:  keywords,
		Platforms: platforms,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ValidateCampaign validates a Campaign instance
func ValidateCampaign(c *Campaign) error {
	if c == nil {
		return fmt.Errorf("campaign cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("campaign ID is required")
	}

	if c.Brand == "" {
		return fmt.Errorf("campaign Brand is required")
	}

	if len(c.Keywords) == 0 {
		return fmt.Errorf("campaign requires at least one keyword")
	}

	if len(c.Platforms) == 0 {
		return fmt.Errorf("campaign requires at least one platform")
	}

	return nil
}
