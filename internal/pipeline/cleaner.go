package pipeline

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/guardrail"
)

// CleanerConfig controls quality scoring and filtering.
type CleanerConfig struct {
	MinQualityScore float32
	MinLength       int
	MaxLength       int
}

// DefaultCleanerConfig provides sane defaults for cleaning.
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		MinQualityScore: 0.2,
		MinLength:       12,
		MaxLength:       8000,
	}
}

// Cleaner is the normalization stage: it strips boilerplate, redacts PII
// shapes, scores quality, and drops junk. Items it emits are immutable
// from then on.
type Cleaner struct {
	redactor *guardrail.Heuristics
	cfg      CleanerConfig
}

// NewCleaner creates a Cleaner node.
func NewCleaner(redactor *guardrail.Heuristics) *Cleaner {
	return NewCleanerWithConfig(redactor, DefaultCleanerConfig())
}

// NewCleanerWithConfig creates a Cleaner node with explicit configuration.
func NewCleanerWithConfig(redactor *guardrail.Heuristics, cfg CleanerConfig) *Cleaner {
	return &Cleaner{redactor: redactor, cfg: cfg}
}

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	boilerplate       = regexp.MustCompile(`(?i)\b(click here to subscribe|sign up for our newsletter|sponsored post|this post contains affiliate links)\b.*`)
)

// Run cleans the scouted items. Items failing the quality floor are
// dropped; the rest come back with CleanText, redaction flags, a quality
// score, and CleanedAt set.
func (c *Cleaner) Run(items []domain.ContentItem) ([]domain.ContentItem, Diagnostics) {
	diag := Diagnostics{ItemsIn: len(items)}
	now := time.Now().UTC()

	out := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if item.Cleaned() {
			// Already processed by a prior attempt; pass through untouched.
			out = append(out, item)
			diag.ItemsOut++
			continue
		}

		text := normalize(item.RawText)
		text, flags := c.redactor.Redact(text)

		if len(text) > c.cfg.MaxLength {
			text = text[:c.cfg.MaxLength]
		}

		score := qualityScore(text, c.cfg)
		if score < c.cfg.MinQualityScore || len(text) < c.cfg.MinLength {
			diag.Dropped++
			continue
		}

		cleaned := item
		cleaned.CleanText = text
		cleaned.RedactionFlags = flags
		cleaned.QualityScore = score
		cleanedAt := now
		cleaned.CleanedAt = &cleanedAt

		out = append(out, cleaned)
		diag.ItemsOut++
	}

	return out, diag
}

// normalize collapses whitespace, strips URLs, control characters, and
// known boilerplate.
func normalize(text string) string {
	text = boilerplate.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(b.String(), " "))
}

// qualityScore rates cleaned text in [0, 1]: enough length to carry
// meaning, and a reasonable ratio of letters to noise.
func qualityScore(text string, cfg CleanerConfig) float32 {
	if text == "" {
		return 0
	}

	letters := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			letters++
		}
	}

	letterRatio := float32(letters) / float32(total)

	lengthFactor := float32(len(text)) / float32(cfg.MinLength*10)
	if lengthFactor > 1 {
		lengthFactor = 1
	}

	return letterRatio * (0.5 + 0.5*lengthFactor)
}
