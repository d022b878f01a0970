package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/guardrail"
	"github.com/brandpulse-ai/brandpulse/internal/telemetry"
	"github.com/google/uuid"
)

// GuardrailAuditEntry is one guardrail decision, persisted for tuning the
// safety layers. It stores verdict metadata, never the matched patterns.
type GuardrailAuditEntry struct {
	SessionID     string
	Direction     guardrail.Direction
	Layer         guardrail.Layer
	Action        guardrail.Action
	Categories    []string
	Query         string
	Crisis        bool
	LowConfidence bool
	DurationMs    int64
}

// GuardrailEvaluator evaluates text in one direction and returns a
// verdict. Verdicts are values, not errors.
type GuardrailEvaluator interface {
	Evaluate(ctx context.Context, text string, direction guardrail.Direction) guardrail.Verdict
}

// IntentClassifier classifies queries and expands them for retrieval.
type IntentClassifier interface {
	Classify(ctx context.Context, query string, history []*domain.ConversationTurn) Intent
	ExpandQuery(ctx context.Context, query string, history []*domain.ConversationTurn) string
}

// InsightRetriever returns campaign insights relevant to a query.
type InsightRetriever interface {
	Retrieve(ctx context.Context, campaignID, query string) ([]*RetrievedInsight, error)
}

// ConversationRepositoryInterface persists chat turns.
type ConversationRepositoryInterface interface {
	AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error
	NextTurnNumber(ctx context.Context, sessionID string) (int, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.ConversationTurn, error)
}

// AuditRepositoryInterface persists guardrail decisions.
type AuditRepositoryInterface interface {
	CreateAuditEntry(ctx context.Context, entry GuardrailAuditEntry) (string, error)
}

// ChatInput is one user query against a campaign's insights.
type ChatInput struct {
	SessionID  string
	CampaignID string
	Query      string
}

// ChatOutput is the answer plus what the guardrails decided along the way.
type ChatOutput struct {
	Answer         string
	Blocked        bool
	Crisis         bool
	VerdictSummary string
	ContextIDs     []string
}

const greetingResponse = "Hello! I can answer questions about what customers are saying in this campaign: sentiment, recurring pain points, and notable feedback. What would you like to know?"

const chatPrompt = `You are an analyst assistant for the brand monitoring campaign below. Answer the question using ONLY the insight excerpts provided.

Rules you must follow:
- If the excerpts do not cover the question, say you found nothing relevant; never invent findings.
- Mention counts are a proxy metric: they may include duplicates and are not counts of unique customers.
- Do not accept, decline, or negotiate offers, contracts, or purchases on the brand's behalf.
- Do not speak as the brand or make commitments for it.
- Do not endorse political parties, candidates, or causes.
- Do not give medical, legal, or financial advice.

Insight excerpts:
%s

Question: %s`

// ChatService answers questions about campaign insights. Every query
// passes the ingress guardrail before any other processing, and every
// generated answer passes the egress guardrail before leaving the service.
type ChatService struct {
	guard         GuardrailEvaluator
	intent        IntentClassifier
	retriever     InsightRetriever
	completer     Completer
	conversations ConversationRepositoryInterface
	audit         AuditRepositoryInterface
	maxTokens     int
}

// NewChatService creates a new ChatService. The audit repository may be
// nil; auditing is best-effort and never blocks an answer.
func NewChatService(
	guard GuardrailEvaluator,
	intent IntentClassifier,
	retriever InsightRetriever,
	completer Completer,
	conversations ConversationRepositoryInterface,
	audit AuditRepositoryInterface,
) *ChatService {
	return &ChatService{
		guard:         guard,
		intent:        intent,
		retriever:     retriever,
		completer:     completer,
		conversations: conversations,
		audit:         audit,
		maxTokens:     1024,
	}
}

// Chat runs one conversation turn.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Chat", telemetry.SpanAttributes{
		CampaignID: input.CampaignID,
		SessionID:  input.SessionID,
		Operation:  "chat",
	})
	defer span.End()

	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if input.SessionID == "" {
		input.SessionID = uuid.NewString()
	}

	// Ingress guardrail runs before intent, retrieval, or any model call.
	ingress := s.evaluate(ctx, input.SessionID, input.Query, guardrail.Ingress)
	if ingress.Crisis {
		out := &ChatOutput{
			Answer:         guardrail.CrisisReferral,
			Blocked:        true,
			Crisis:         true,
			VerdictSummary: ingress.Summary(),
		}
		s.recordTurn(ctx, input, out)
		return out, nil
	}
	if !ingress.Allowed() {
		out := &ChatOutput{
			Answer:         refusalFor(ingress),
			Blocked:        true,
			VerdictSummary: ingress.Summary(),
		}
		s.recordTurn(ctx, input, out)
		return out, nil
	}

	query := input.Query
	if ingress.Action == guardrail.ActionRedact {
		query = ingress.RedactedText
	}

	history := s.history(ctx, input.SessionID)

	intent := s.intent.Classify(ctx, query, history)
	if intent == IntentGreeting {
		out := &ChatOutput{
			Answer:         greetingResponse,
			VerdictSummary: ingress.Summary(),
		}
		s.recordTurn(ctx, input, out)
		return out, nil
	}

	// Only hybrid turns hand the history to the rewriter; a standalone
	// question should not be steered by what came before it.
	var rewriteHistory []*domain.ConversationTurn
	if intent == IntentHybrid {
		rewriteHistory = history
	}

	retrievalQuery := s.intent.ExpandQuery(ctx, query, rewriteHistory)
	insights, err := s.retriever.Retrieve(ctx, input.CampaignID, retrievalQuery)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := s.completer.Complete(ctx, fmt.Sprintf(chatPrompt, formatContext(insights), query), s.maxTokens)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	egress := s.evaluate(ctx, input.SessionID, answer, guardrail.Egress)
	out := &ChatOutput{
		ContextIDs: contextIDs(insights),
	}
	switch {
	case egress.Crisis:
		out.Answer = guardrail.CrisisReferral
		out.Blocked = true
		out.Crisis = true
	case !egress.Allowed():
		out.Answer = refusalFor(egress)
		out.Blocked = true
	case egress.Action == guardrail.ActionRedact:
		out.Answer = egress.RedactedText
	default:
		out.Answer = answer
	}
	out.VerdictSummary = ingress.Summary() + "; " + egress.Summary()

	s.recordTurn(ctx, input, out)
	return out, nil
}

// evaluate runs the guardrail and audits the decision. Audit failures are
// logged, never surfaced: a broken audit table must not take chat down.
func (s *ChatService) evaluate(ctx context.Context, sessionID, text string, direction guardrail.Direction) guardrail.Verdict {
	start := time.Now()
	verdict := s.guard.Evaluate(ctx, text, direction)

	if s.audit != nil {
		entry := GuardrailAuditEntry{
			SessionID:     sessionID,
			Direction:     direction,
			Layer:         verdict.Layer,
			Action:        verdict.Action,
			Categories:    verdict.Categories,
			Query:         text,
			Crisis:        verdict.Crisis,
			LowConfidence: verdict.LowConfidence,
			DurationMs:    time.Since(start).Milliseconds(),
		}
		if _, err := s.audit.CreateAuditEntry(ctx, entry); err != nil {
			log.Printf("chat: failed to audit %s verdict: %v", direction, err)
		}
	}

	return verdict
}

// history loads the session's prior turns. Failures degrade to an empty
// history: follow-up resolution suffers but the turn still completes.
func (s *ChatService) history(ctx context.Context, sessionID string) []*domain.ConversationTurn {
	turns, err := s.conversations.ListBySession(ctx, sessionID)
	if err != nil {
		log.Printf("chat: failed to load history for session %s: %v", sessionID, err)
		return nil
	}
	return turns
}

func (s *ChatService) recordTurn(ctx context.Context, input ChatInput, out *ChatOutput) {
	turn, err := s.conversations.NextTurnNumber(ctx, input.SessionID)
	if err != nil {
		log.Printf("chat: failed to number turn for session %s: %v", input.SessionID, err)
		return
	}

	rec := &domain.ConversationTurn{
		ID:             uuid.NewString(),
		SessionID:      input.SessionID,
		Turn:           turn,
		Query:          input.Query,
		Answer:         out.Answer,
		VerdictSummary: out.VerdictSummary,
		ContextIDs:     out.ContextIDs,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.conversations.AppendTurn(ctx, rec); err != nil {
		log.Printf("chat: failed to record turn for session %s: %v", input.SessionID, err)
	}
}

func refusalFor(v guardrail.Verdict) string {
	if v.Message != "" {
		return v.Message
	}
	return guardrail.SafeRefusal
}

// formatContext renders retrieved insights for the generation prompt.
func formatContext(insights []*RetrievedInsight) string {
	if len(insights) == 0 {
		return "(no relevant insights found)"
	}

	var b strings.Builder
	for i, ins := range insights {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, ins.Sentiment, ins.Summary)
		if len(ins.PainPoints) > 0 {
			fmt.Fprintf(&b, " (pain points: %s)", strings.Join(ins.PainPoints, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func contextIDs(insights []*RetrievedInsight) []string {
	ids := make([]string, 0, len(insights))
	for _, ins := range insights {
		ids = append(ids, ins.ID)
	}
	return ids
}
