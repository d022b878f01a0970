package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
)

// Intent classifies what a chat query is asking for.
type Intent string

const (
	// IntentGreeting is small talk with no analytical content.
	IntentGreeting Intent = "greeting"
	// IntentSemantic is a self-contained question about campaign insights.
	IntentSemantic Intent = "semantic"
	// IntentHybrid is an analytical question that leans on earlier turns
	// ("what about them?") and needs the conversation to resolve.
	IntentHybrid Intent = "hybrid"
)

// Completer is the slice of the generation service the intent and chat
// layers need.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|good (morning|afternoon|evening)|howdy|thanks|thank you|bye|goodbye)[\s!.,]*$`)

// followupPattern catches queries that obviously reference the
// conversation rather than standing alone.
var followupPattern = regexp.MustCompile(`(?i)\b(what|how)\s+about\b|\b(them|those|these)\b|\bthat\s+(issue|problem|one|topic)\b`)

const intentPrompt = `Classify the user message as one of:
- "greeting": small talk, pleasantries, thanks
- "semantic": a self-contained question about brand feedback, sentiment, or customer insights
- "hybrid": a question about brand feedback that refers back to the conversation with pronouns or ellipsis ("what about them?")
Respond with exactly one word.

Message: %s`

const rewritePrompt = `Rewrite the user question as a short keyword query for searching customer feedback insights. Respond with only the query, no prose.

Question: %s`

const rewriteHistoryPrompt = `Rewrite the user question as a short, self-contained keyword query for searching customer feedback insights. Resolve pronouns and references using the conversation so far. Respond with only the query, no prose.

Conversation so far:
%s

Question: %s`

// historyWindow bounds how many prior turns feed the rewrite prompt.
const historyWindow = 5

// IntentService classifies queries and expands them for retrieval.
type IntentService struct {
	completer Completer
}

// NewIntentService creates a new IntentService.
func NewIntentService(completer Completer) *IntentService {
	return &IntentService{completer: completer}
}

// Classify returns the query's intent. Obvious greetings and obvious
// follow-ups are matched without a model call; everything ambiguous
// defaults to semantic, the path that actually retrieves evidence. A
// hybrid verdict with no history to resolve against degrades to semantic.
func (s *IntentService) Classify(ctx context.Context, query string, history []*domain.ConversationTurn) Intent {
	if greetingPattern.MatchString(query) {
		return IntentGreeting
	}
	if len(history) > 0 && followupPattern.MatchString(query) {
		return IntentHybrid
	}
	if s.completer == nil {
		return IntentSemantic
	}

	raw, err := s.completer.Complete(ctx, fmt.Sprintf(intentPrompt, query), 8)
	if err != nil {
		log.Printf("intent: classification failed, defaulting to semantic: %v", err)
		return IntentSemantic
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(IntentGreeting):
		return IntentGreeting
	case string(IntentHybrid):
		if len(history) == 0 {
			return IntentSemantic
		}
		return IntentHybrid
	default:
		return IntentSemantic
	}
}

// ExpandQuery returns the retrieval text for a query: the raw query plus a
// model-generated keyword form. With history the rewrite resolves pronouns
// and ellipsis against the prior turns. The raw query is always kept, so a
// bad rewrite can dilute retrieval but never hijack it — and a rewritten
// query cannot shed the tokens the ingress guardrail already evaluated.
func (s *IntentService) ExpandQuery(ctx context.Context, query string, history []*domain.ConversationTurn) string {
	if s.completer == nil {
		return query
	}

	prompt := fmt.Sprintf(rewritePrompt, query)
	if len(history) > 0 {
		prompt = fmt.Sprintf(rewriteHistoryPrompt, formatHistory(history), query)
	}

	raw, err := s.completer.Complete(ctx, prompt, 64)
	if err != nil {
		log.Printf("intent: query expansion failed, using raw query: %v", err)
		return query
	}

	rewritten := strings.TrimSpace(raw)
	if rewritten == "" || strings.EqualFold(rewritten, strings.TrimSpace(query)) {
		return query
	}
	return query + "\n" + rewritten
}

// formatHistory renders the most recent turns for the rewrite prompt.
func formatHistory(turns []*domain.ConversationTurn) string {
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}

	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.Query, t.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
