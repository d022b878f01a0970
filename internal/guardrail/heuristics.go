package guardrail

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxScanBytes caps the text length inspected by pattern matching.
// Go's regexp is RE2 (no backtracking), so matching is linear in input
// size; the cap keeps the constant small under adversarial padding.
const DefaultMaxScanBytes = 16 * 1024

var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(kill(ing)? myself|end(ing)? my (own )?life|suicid(e|al)|self[- ]?harm|hurt(ing)? myself|want to die|don'?t want to (live|be alive))\b`),
	regexp.MustCompile(`(?i)\bno reason to (live|go on)\b`),
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|earlier|above)\s+(instructions?|prompts?|rules?|context)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|your)\s+(instructions?|guidelines?|rules?)`),
	regexp.MustCompile(`(?i)\breveal\b.{0,40}\b(system\s+prompt|hidden\s+instructions?|initial\s+prompt)`),
	regexp.MustCompile(`(?i)\b(system\s+prompt|developer\s+mode|jailbreak|DAN\s+mode)\b`),
	regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(a|an|in|no\s+longer)\b`),
	regexp.MustCompile(`(?i)\b(act|pretend|roleplay)\s+as\s+(if\s+you\s+(are|were)|a\s+different|an?\s+unrestricted)`),
	regexp.MustCompile(`(?im)^\s*(system|assistant|developer)\s*:`),
	// Long base64-looking runs are a common vehicle for smuggled payloads.
	regexp.MustCompile(`[A-Za-z0-9+/]{120,}={0,2}`),
	regexp.MustCompile(`(?i)\\u00[0-9a-f]{2}(\\u00[0-9a-f]{2}){8,}`),
}

// harmfulLexicon covers operational harm vocabulary. Matching a term marks
// the harmful_intent category; the weapons/drugs split is used by the
// boundary layer and the classifier failure policy.
var (
	weaponsLexicon = regexp.MustCompile(`(?i)\b(sarin|vx\s+gas|nerve\s+agent|mustard\s+gas|ricin|anthrax|pipe\s+bomb|ghost\s+gun|improvised\s+explosive|dirty\s+bomb|chemical\s+weapon|bioweapon|detonator)\b`)
	drugsLexicon   = regexp.MustCompile(`(?i)\b(fentanyl\s+synthesis|cook\s+meth|methamphetamine\s+synthesis|synthesi[sz]e\s+(mdma|lsd|fentanyl)|precursor\s+chemicals)\b`)
)

var piiPatterns = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
	"phone": regexp.MustCompile(`\b(\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`),
	"ssn":   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"card":  regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`),
}

// Heuristics is the stateless first guardrail layer: deterministic pattern
// matching over raw text. No dependencies, bounded time.
type Heuristics struct {
	maxScanBytes int
}

// NewHeuristics creates a heuristics layer with the default scan cap.
func NewHeuristics() *Heuristics {
	return &Heuristics{maxScanBytes: DefaultMaxScanBytes}
}

// NewHeuristicsWithCap creates a heuristics layer with an explicit scan cap.
func NewHeuristicsWithCap(maxScanBytes int) *Heuristics {
	if maxScanBytes <= 0 {
		maxScanBytes = DefaultMaxScanBytes
	}
	return &Heuristics{maxScanBytes: maxScanBytes}
}

// capScan truncates text to the scan limit on a rune boundary, so the
// pattern layers never match against a split rune.
func capScan(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Evaluate runs the deterministic checks. Crisis signals are checked first
// and override everything else.
func (h *Heuristics) Evaluate(text string, direction Direction) Verdict {
	scan := capScan(text, h.maxScanBytes)

	for _, p := range crisisPatterns {
		if p.MatchString(scan) {
			return Verdict{
				Action:     ActionBlock,
				Layer:      LayerHeuristics,
				Categories: []string{CategorySelfHarm},
				Message:    CrisisReferral,
				Crisis:     true,
			}
		}
	}

	if direction == Ingress {
		for _, p := range injectionPatterns {
			if p.MatchString(scan) {
				return Verdict{
					Action:     ActionBlock,
					Layer:      LayerHeuristics,
					Categories: []string{CategoryInjection},
					Message:    SafeRefusal,
				}
			}
		}
	}

	var categories []string
	if weaponsLexicon.MatchString(scan) {
		categories = append(categories, CategoryHarmful, CategoryWeapons)
	}
	if drugsLexicon.MatchString(scan) {
		if len(categories) == 0 {
			categories = append(categories, CategoryHarmful)
		}
		categories = append(categories, CategoryDrugs)
	}
	if len(categories) > 0 && direction == Ingress {
		return Verdict{
			Action:     ActionBlock,
			Layer:      LayerHeuristics,
			Categories: categories,
			Message:    SafeRefusal,
		}
	}

	if redacted, flags := h.Redact(scan); len(flags) > 0 {
		return Verdict{
			Action:       ActionRedact,
			Layer:        LayerHeuristics,
			Categories:   append(categories, CategoryPII),
			RedactedText: redacted,
		}
	}

	if len(categories) > 0 {
		// Egress lexicon hits alone are advisory; the boundary layer decides.
		return Verdict{Action: ActionAllow, Layer: LayerHeuristics, Categories: categories}
	}

	return allow()
}

// Redact replaces PII shapes with typed placeholders and returns the flags
// for the shapes found. Card numbers are Luhn-checked to avoid redacting
// order ids and timestamps.
func (h *Heuristics) Redact(text string) (string, []string) {
	scan := capScan(text, h.maxScanBytes)
	var flags []string

	for _, name := range []string{"email", "ssn", "card", "phone"} {
		p := piiPatterns[name]
		matched := false
		scan = p.ReplaceAllStringFunc(scan, func(m string) string {
			if name == "card" && !luhnValid(m) {
				return m
			}
			matched = true
			return "[" + strings.ToUpper(name) + "_REDACTED]"
		})
		if matched {
			flags = append(flags, name)
		}
	}

	return scan, flags
}

// HasCategoryHint reports whether the text trips the lexicon for a
// category. Used by the classifier failure policy to keep the riskiest
// categories fail-closed when the classifier is down.
func (h *Heuristics) HasCategoryHint(text, category string) bool {
	scan := capScan(text, h.maxScanBytes)
	switch category {
	case CategoryWeapons:
		return weaponsLexicon.MatchString(scan)
	case CategoryDrugs:
		return drugsLexicon.MatchString(scan)
	case CategoryPII:
		for _, p := range piiPatterns {
			if p.MatchString(scan) {
				return true
			}
		}
	}
	return false
}

// luhnValid reports whether a digit string passes the Luhn checksum.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 16 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
