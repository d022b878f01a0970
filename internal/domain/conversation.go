package domain

import (
	"fmt"
	"time"
)

// ConversationTurn is one (query, verdict, context, answer) tuple in a chat
// session. Turns are append-only; a new turn may reference but never mutate
// a prior turn's retrieved context.
type ConversationTurn struct {
	ID             string
	SessionID      string
	Turn           int
	Query          string
	Answer         string
	VerdictSummary string
	ContextIDs     []string
	CreatedAt      time.Time
}

// ValidateConversationTurn validates a ConversationTurn instance
func ValidateConversationTurn(t *ConversationTurn) error {
	if t == nil {
		return fmt.Errorf("conversation turn cannot be nil")
	}

	if t.SessionID == "" {
		return fmt.Errorf("conversation turn SessionID is required")
	}

	if t.Turn <= 0 {
		return fmt.Errorf("conversation turn Turn must be greater than 0")
	}

	if t.Query == "" {
		return fmt.Errorf("conversation turn Query is required")
	}

	return nil
}
