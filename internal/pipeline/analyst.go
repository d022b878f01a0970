package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/llm"
	"github.com/google/uuid"
)

// Completer is the slice of the generation service the Analyst needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const analystMaxTokens = 512

const analystPrompt = `You analyze user-generated content about the brand "%s".
For the content below, respond with ONLY a JSON object, no prose:
{"sentiment": "positive|negative|neutral|mixed", "pain_points": ["tag", ...], "summary": "<one sentence>", "confidence": <0.0-1.0>}

Content:
---
%s
---`

// analystOutput is the structured response parsed from the service.
type analystOutput struct {
	Sentiment  string   `json:"sentiment"`
	PainPoints []string `json:"pain_points"`
	Summary    string   `json:"summary"`
	Confidence float64  `json:"confidence"`
}

// Analyst is the analysis stage: one extraction call per cleaned item,
// parsed into a structured Insight.
type Analyst struct {
	completer Completer
}

// NewAnalyst creates an Analyst node.
func NewAnalyst(completer Completer) *Analyst {
	return &Analyst{completer: completer}
}

// Run produces insights for the cleaned items. Transient service errors
// fail the stage so the orchestrator can retry; a malformed response for a
// single item skips that item rather than poisoning the whole stage.
func (a *Analyst) Run(ctx context.Context, brand string, items []domain.ContentItem) ([]domain.Insight, Diagnostics, error) {
	diag := Diagnostics{ItemsIn: len(items)}
	now := time.Now().UTC()

	insights := make([]domain.Insight, 0, len(items))
	for _, item := range items {
		if !item.Cleaned() {
			return nil, diag, fmt.Errorf("analyst received uncleaned content item %s", item.ID)
		}

		raw, err := a.completer.Complete(ctx, fmt.Sprintf(analystPrompt, brand, item.CleanText), analystMaxTokens)
		if err != nil {
			if llm.Transient(err) {
				return nil, diag, fmt.Errorf("analysis call failed for item %s: %w", item.ID, err)
			}
			log.Printf("analyst: skipping item %s: %v", item.ID, err)
			diag.Dropped++
			continue
		}

		out, err := parseAnalystOutput(raw)
		if err != nil {
			log.Printf("analyst: skipping item %s: %v", item.ID, err)
			diag.Dropped++
			continue
		}

		insight := domain.Insight{
			ID:         uuid.NewString(),
			CampaignID: item.CampaignID,
			RunID:      item.RunID,
			ContentID:  item.ID,
			Sentiment:  domain.Sentiment(out.Sentiment),
			PainPoints: out.PainPoints,
			Summary:    out.Summary,
			Confidence: float32(out.Confidence),
			CreatedAt:  now,
		}

		if err := domain.ValidateInsight(&insight); err != nil {
			log.Printf("analyst: skipping item %s: invalid insight: %v", item.ID, err)
			diag.Dropped++
			continue
		}

		insights = append(insights, insight)
		diag.ItemsOut++
	}

	return insights, diag, nil
}

// parseAnalystOutput extracts the JSON object from the model response.
func parseAnalystOutput(raw string) (analystOutput, error) {
	var out analystOutput

	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return out, fmt.Errorf("no JSON object in analyst response")
	}

	if err := json.Unmarshal([]byte(clean[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("failed to parse analyst response: %w", err)
	}

	if out.Summary == "" {
		return out, fmt.Errorf("analyst response missing summary")
	}

	return out, nil
}
