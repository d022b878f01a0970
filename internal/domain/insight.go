package domain

import (
	"fmt"
	"time"
)

// Sentiment is the Analyst's sentiment label for a content item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Insight is the Analyst's structured output for one content item.
// The embedding is attached asynchronously by the embedding worker and is
// immutable once written; regenerating appends a new version row instead of
// overwriting, so concurrent retrieval reads stay safe.
type Insight struct {
	ID         string
	CampaignID string
	RunID      string
	ContentID  string
	Sentiment  Sentiment
	PainPoints []string
	Summary    string
	Confidence float32
	CreatedAt  time.Time
}

// InsightEmbedding is one immutable embedding version for an insight.
type InsightEmbedding struct {
	ID        string
	InsightID string
	Version   int
	Embedding []float32
	CreatedAt time.Time
}

// ValidateInsight validates an Insight instance
func ValidateInsight(i *Insight) error {
	if i == nil {
		return fmt.Errorf("insight cannot be nil")
	}

	if i.ID == "" {
		return fmt.Errorf("insight ID is required")
	}

	if i.CampaignID == "" {
		return fmt.Errorf("insight CampaignID is required")
	}

	if i.ContentID == "" {
		return fmt.Errorf("insight ContentID is required")
	}

	if i.Summary == "" {
		return fmt.Errorf("insight Summary is required")
	}

	if !isValidSentiment(i.Sentiment) {
		return fmt.Errorf("insight Sentiment is invalid: %s", i.Sentiment)
	}

	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("insight Confidence must be in [0, 1]")
	}

	return nil
}

// isValidSentiment checks if a Sentiment is valid
func isValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}
