package guardrail

import "strings"

// Action is the outcome of a guardrail evaluation.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionBlock  Action = "block"
	ActionRedact Action = "redact"
)

// Layer identifies which guardrail layer produced a verdict.
type Layer string

const (
	LayerNone       Layer = "none"
	LayerHeuristics Layer = "heuristics"
	LayerClassifier Layer = "classifier"
	LayerBoundary   Layer = "boundary"
)

// Direction distinguishes evaluation of user input from evaluation of
// generated output.
type Direction string

const (
	Ingress Direction = "ingress"
	Egress  Direction = "egress"
)

// Category taxonomy tags attached to verdicts.
const (
	CategoryInjection   = "prompt_injection"
	CategoryPII         = "pii"
	CategoryHarmful     = "harmful_intent"
	CategorySelfHarm    = "self_harm"
	CategoryWeapons     = "weapons"
	CategoryDrugs       = "drugs"
	CategoryContract    = "contract_acceptance"
	CategoryAuthority   = "brand_authority"
	CategoryPolitical   = "political_endorsement"
	CategoryProxyMetric = "proxy_metric"
)

// Verdict is the result of evaluating one text payload. It is a plain
// value, never an error: a block is an expected, frequent outcome and
// callers cannot bypass it via exception swallowing.
type Verdict struct {
	Action        Action
	Layer         Layer
	Categories    []string
	RedactedText  string
	Message       string
	Crisis        bool
	LowConfidence bool
}

// Allowed reports whether the payload may proceed (possibly redacted).
func (v Verdict) Allowed() bool {
	return v.Action != ActionBlock
}

// Summary renders the verdict as a compact audit string, e.g.
// "block/heuristics:prompt_injection". It never includes matched patterns.
func (v Verdict) Summary() string {
	s := string(v.Action) + "/" + string(v.Layer)
	if len(v.Categories) > 0 {
		s += ":" + strings.Join(v.Categories, ",")
	}
	if v.LowConfidence {
		s += " (low-confidence)"
	}
	return s
}

// allow is the zero-trigger verdict.
func allow() Verdict {
	return Verdict{Action: ActionAllow, Layer: LayerNone}
}

// SafeRefusal is returned to callers on any block. It deliberately reveals
// neither the matched pattern nor the classifier's reasoning.
const SafeRefusal = "I can't help with that request. I can answer questions about this brand's content analysis instead."

// CrisisReferral is the fixed response for self-harm signals. It is the
// single highest-priority rule and overrides all other verdicts.
const CrisisReferral = "It sounds like you may be going through something serious. You deserve support: " +
	"please reach out to someone you trust, or contact a crisis line such as 988 (US) or your local emergency services."
