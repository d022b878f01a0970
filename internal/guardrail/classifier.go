package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer is the slice of the generation service the classifier needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const classifierMaxTokens = 64

const safetyLabelingPrompt = `You are a content safety labeler for a brand analytics system.
Label the text below with exactly one category from this list:
safe, prompt_injection, pii, harmful_intent, self_harm, weapons, drugs, political_endorsement

Respond with ONLY a JSON object, no prose:
{"category": "<category>", "confidence": <0.0-1.0>}

Text to label:
---
%s
---`

// classifierLabel is the structured response parsed from the service.
type classifierLabel struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// FailurePolicy decides what happens when the classifier layer itself
// fails (timeout, rate limit, garbage response). The ingress/egress
// asymmetry is deliberate: blocking every answer on a transient service
// failure is operationally unacceptable, but the same leniency on input
// invites injection. The per-category egress overrides exist because
// red-team data showed blanket fail-open increases PII and weapons
// leakage; the boundary is empirical, so it stays configurable.
type FailurePolicy struct {
	IngressFailOpen bool
	EgressFailOpen  bool
	// EgressFailClosedCategories lists categories that stay fail-closed on
	// egress even when EgressFailOpen is true, gated on a heuristic hint.
	EgressFailClosedCategories []string
}

// DefaultFailurePolicy returns ingress fail-closed, egress fail-open with
// weapons and pii kept closed.
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		IngressFailOpen:            false,
		EgressFailOpen:             true,
		EgressFailClosedCategories: []string{CategoryWeapons, CategoryPII},
	}
}

// Classifier is the second guardrail layer: a constrained safety-labeling
// call to the generation service. Advisory when the service is down, per
// the failure policy.
type Classifier struct {
	completer  Completer
	heuristics *Heuristics
	policy     FailurePolicy
	threshold  float64
}

// NewClassifier creates a classifier layer with the default policy and a
// 0.5 confidence threshold.
func NewClassifier(completer Completer, heuristics *Heuristics) *Classifier {
	return NewClassifierWithPolicy(completer, heuristics, DefaultFailurePolicy())
}

// NewClassifierWithPolicy creates a classifier layer with an explicit
// failure policy.
func NewClassifierWithPolicy(completer Completer, heuristics *Heuristics, policy FailurePolicy) *Classifier {
	return &Classifier{
		completer:  completer,
		heuristics: heuristics,
		policy:     policy,
		threshold:  0.5,
	}
}

// Evaluate labels the text and converts the label into a verdict. Service
// failures never propagate as errors; they resolve through the policy.
func (c *Classifier) Evaluate(ctx context.Context, text string, direction Direction) Verdict {
	raw, err := c.completer.Complete(ctx, fmt.Sprintf(safetyLabelingPrompt, text), classifierMaxTokens)
	if err != nil {
		return c.onFailure(text, direction)
	}

	label, err := parseLabel(raw)
	if err != nil {
		return c.onFailure(text, direction)
	}

	if label.Category == "safe" || label.Confidence < c.threshold {
		return Verdict{Action: ActionAllow, Layer: LayerClassifier}
	}

	return Verdict{
		Action:     ActionBlock,
		Layer:      LayerClassifier,
		Categories: []string{label.Category},
		Message:    SafeRefusal,
	}
}

// onFailure applies the fail-open/fail-closed policy.
func (c *Classifier) onFailure(text string, direction Direction) Verdict {
	if direction == Ingress {
		if c.policy.IngressFailOpen {
			return Verdict{Action: ActionAllow, Layer: LayerClassifier, LowConfidence: true}
		}
		return Verdict{
			Action:  ActionBlock,
			Layer:   LayerClassifier,
			Message: SafeRefusal,
		}
	}

	if !c.policy.EgressFailOpen {
		return Verdict{
			Action:  ActionBlock,
			Layer:   LayerClassifier,
			Message: SafeRefusal,
		}
	}

	// Fail-open, but keep the configured categories closed when the
	// heuristic lexicon hints at them.
	for _, cat := range c.policy.EgressFailClosedCategories {
		if c.heuristics.HasCategoryHint(text, cat) {
			return Verdict{
				Action:     ActionBlock,
				Layer:      LayerClassifier,
				Categories: []string{cat},
				Message:    SafeRefusal,
			}
		}
	}

	return Verdict{Action: ActionAllow, Layer: LayerClassifier, LowConfidence: true}
}

// parseLabel extracts the JSON label object from the model response,
// tolerating code fences but nothing else.
func parseLabel(raw string) (classifierLabel, error) {
	var label classifierLabel

	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return label, fmt.Errorf("no JSON object in classifier response")
	}

	if err := json.Unmarshal([]byte(clean[start:end+1]), &label); err != nil {
		return label, fmt.Errorf("failed to parse classifier response: %w", err)
	}

	if label.Category == "" {
		return label, fmt.Errorf("classifier response missing category")
	}
	if label.Confidence < 0 || label.Confidence > 1 {
		return label, fmt.Errorf("classifier confidence out of range")
	}

	return label, nil
}
