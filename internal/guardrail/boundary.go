package guardrail

import "regexp"

// Boundary is the egress-only third layer. It inspects the generated text
// itself, not the intent behind the query, which closes the reframing gap:
// a harmful request disguised as fiction or a "simulation" still produces
// harmful output, and that output is what gets scanned here.
type Boundary struct {
	maxScanBytes int
}

// NewBoundary creates the boundary layer with the default scan cap.
func NewBoundary() *Boundary {
	return &Boundary{maxScanBytes: DefaultMaxScanBytes}
}

// NewBoundaryWithCap creates the boundary layer with an explicit scan cap.
func NewBoundaryWithCap(maxScanBytes int) *Boundary {
	if maxScanBytes <= 0 {
		maxScanBytes = DefaultMaxScanBytes
	}
	return &Boundary{maxScanBytes: maxScanBytes}
}

var contractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(we|i)\s+(hereby\s+)?(accept|agree\s+to)\s+(the\s+)?(terms|contract|agreement|nda|non[- ]disclosure)`),
	regexp.MustCompile(`(?i)\bthis\s+(constitutes|forms)\s+a\s+(binding\s+)?(agreement|contract)\b`),
	regexp.MustCompile(`(?i)\bconsider\s+(the\s+)?(nda|contract|agreement)\s+(signed|accepted|executed)\b`),
}

var authorityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(as|i\s+am)\s+(an?\s+)?(official|authorized)\s+(representative|spokesperson|agent)\s+of\b`),
	regexp.MustCompile(`(?i)\b(speaking|acting)\s+on\s+behalf\s+of\s+the\s+(brand|company)\b`),
	regexp.MustCompile(`(?i)\bthe\s+(brand|company)\s+(guarantees|commits\s+to|promises)\b`),
}

var politicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(we|the\s+brand)\s+(endorses?|supports?)\s+(the\s+)?\w+\s+(party|candidate|campaign)\b`),
	regexp.MustCompile(`(?i)\bvote\s+for\b`),
}

// operationalMarkers indicate instructional content. Alone they are
// harmless; co-occurring with the weapons/drugs lexicon they mean the
// output contains operational harm instructions regardless of how the
// request was framed.
var operationalMarkers = regexp.MustCompile(`(?i)\b(step\s+\d|first,?\s+(obtain|acquire|get)|you\s+will\s+need|mix|combine|heat|synthesi[sz]e|assemble|manufactur\w+|activate\s+(it|the)|disperse|ratio\s+of)\b`)

var selfHarmInstructionMarkers = regexp.MustCompile(`(?i)\b(most\s+(effective|lethal)\s+(method|way)|painless\s+(method|way)|how\s+to\s+(overdose|hang))\b`)

// proxyMetricPatterns flag answers that present engagement counts as
// counts of people, or social-sentiment proxies as regulated survey
// metrics.
var proxyMetricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(unique|distinct|individual)\s+(individuals|people|persons|users|customers|respondents)\b`),
	regexp.MustCompile(`(?i)\bnet\s+promoter\s+score\b`),
	regexp.MustCompile(`(?i)\b\d[\d,]*\s+people\s+(said|reported|complained|mentioned)\b`),
}

var caveatMarkers = regexp.MustCompile(`(?i)\b(proxy|approximation|may\s+(include|contain)\s+duplicates|not\s+(a\s+count\s+of\s+)?unique|mention\s+counts?,?\s+not|cannot\s+be\s+equated|caveat|not\s+a\s+(regulated|formal)\s+(survey|metric))\b`)

const proxyMetricCaveat = "\n\nNote: these figures are derived from mention counts, which are a proxy and may include duplicates; they are not a count of unique individuals or a regulated survey metric."

// Evaluate scans generated text for categories that must never appear.
func (b *Boundary) Evaluate(text string) Verdict {
	scan := capScan(text, b.maxScanBytes)

	for _, p := range contractPatterns {
		if p.MatchString(scan) {
			return boundaryBlock(CategoryContract)
		}
	}

	for _, p := range authorityPatterns {
		if p.MatchString(scan) {
			return boundaryBlock(CategoryAuthority)
		}
	}

	for _, p := range politicalPatterns {
		if p.MatchString(scan) {
			return boundaryBlock(CategoryPolitical)
		}
	}

	if weaponsLexicon.MatchString(scan) && operationalMarkers.MatchString(scan) {
		return boundaryBlock(CategoryWeapons)
	}

	if drugsLexicon.MatchString(scan) && operationalMarkers.MatchString(scan) {
		return boundaryBlock(CategoryDrugs)
	}

	if selfHarmInstructionMarkers.MatchString(scan) {
		return boundaryBlock(CategorySelfHarm)
	}

	for name, p := range piiPatterns {
		if p.MatchString(scan) {
			if name == "card" && !cardMatchIsValid(p, scan) {
				continue
			}
			return boundaryBlock(CategoryPII)
		}
	}

	// Proxy-metric terms without a caveat get the caveat appended rather
	// than a refusal: the numbers are legitimate, the framing is not.
	for _, p := range proxyMetricPatterns {
		if p.MatchString(scan) && !caveatMarkers.MatchString(scan) {
			return Verdict{
				Action:       ActionRedact,
				Layer:        LayerBoundary,
				Categories:   []string{CategoryProxyMetric},
				RedactedText: text + proxyMetricCaveat,
			}
		}
	}

	return Verdict{Action: ActionAllow, Layer: LayerBoundary}
}

func boundaryBlock(category string) Verdict {
	return Verdict{
		Action:     ActionBlock,
		Layer:      LayerBoundary,
		Categories: []string{category},
		Message:    SafeRefusal,
	}
}

func cardMatchIsValid(p *regexp.Regexp, scan string) bool {
	for _, m := range p.FindAllString(scan, -1) {
		if luhnValid(m) {
			return true
		}
	}
	return false
}
