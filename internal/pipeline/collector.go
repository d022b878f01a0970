package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPCollector fetches raw content from a collector service that fronts
// the platform crawlers. The service exposes one endpoint returning a
// JSON array of items for a query and platform.
type HTTPCollector struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPCollector(baseURL string) *HTTPCollector {
	return &HTTPCollector{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type collectorItem struct {
	Platform   string    `json:"platform"`
	ExternalID string    `json:"external_id"`
	Text       string    `json:"text"`
	PostedAt   time.Time `json:"posted_at"`
}

// Fetch queries the collector service for one platform.
func (c *HTTPCollector) Fetch(ctx context.Context, query, platform string) ([]RawItem, error) {
	u := fmt.Sprintf("%s/collect?platform=%s&q=%s",
		c.baseURL, url.QueryEscape(platform), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build collector request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("collector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collector returned status %d for platform %s", resp.StatusCode, platform)
	}

	var items []collectorItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode collector response: %w", err)
	}

	raw := make([]RawItem, 0, len(items))
	for _, it := range items {
		platformName := it.Platform
		if platformName == "" {
			platformName = platform
		}
		raw = append(raw, RawItem{
			Platform:   platformName,
			ExternalID: it.ExternalID,
			Text:       it.Text,
			PostedAt:   it.PostedAt,
		})
	}
	return raw, nil
}
