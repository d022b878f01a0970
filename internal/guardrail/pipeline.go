package guardrail

import "context"

// Pipeline composes the three layers in strict order: heuristics, then
// classifier, then (egress only) boundary. Evaluation short-circuits on
// the first block. Redactions carry forward: later layers see the
// redacted text, and redaction flags from multiple layers accumulate.
type Pipeline struct {
	heuristics *Heuristics
	classifier *Classifier
	boundary   *Boundary
}

// NewPipeline wires the full three-layer pipeline. The classifier may be
// nil when no generation service is configured; the heuristics and
// boundary layers still run.
func NewPipeline(heuristics *Heuristics, classifier *Classifier, boundary *Boundary) *Pipeline {
	return &Pipeline{
		heuristics: heuristics,
		classifier: classifier,
		boundary:   boundary,
	}
}

// Evaluate runs the layers over one text payload.
func (p *Pipeline) Evaluate(ctx context.Context, text string, direction Direction) Verdict {
	current := text
	var redactCategories []string
	redactLayer := LayerNone
	lowConfidence := false

	hv := p.heuristics.Evaluate(current, direction)
	if hv.Action == ActionBlock {
		return hv
	}
	if hv.Action == ActionRedact {
		current = hv.RedactedText
		redactCategories = append(redactCategories, hv.Categories...)
		redactLayer = LayerHeuristics
	}

	if p.classifier != nil {
		cv := p.classifier.Evaluate(ctx, current, direction)
		if cv.Action == ActionBlock {
			return cv
		}
		lowConfidence = cv.LowConfidence
	}

	if direction == Egress && p.boundary != nil {
		bv := p.boundary.Evaluate(current)
		if bv.Action == ActionBlock {
			return bv
		}
		if bv.Action == ActionRedact {
			current = bv.RedactedText
			redactCategories = append(redactCategories, bv.Categories...)
			redactLayer = LayerBoundary
		}
	}

	if redactLayer != LayerNone {
		return Verdict{
			Action:        ActionRedact,
			Layer:         redactLayer,
			Categories:    redactCategories,
			RedactedText:  current,
			LowConfidence: lowConfidence,
		}
	}

	v := allow()
	v.LowConfidence = lowConfidence
	return v
}
