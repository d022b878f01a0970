package repository

import (
	"context"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository stores chat turns. Turns are append-only.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

func (r *ConversationRepository) AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversation_turns (id, session_id, turn, query, answer, verdict_summary, context_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turn.ID, turn.SessionID, turn.Turn, turn.Query, turn.Answer, nullableString(turn.VerdictSummary), turn.ContextIDs, turn.CreatedAt,
	)
	return err
}

func (r *ConversationRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.ConversationTurn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, turn, query, answer, verdict_summary, context_ids, created_at
		 FROM conversation_turns WHERE session_id = $1 ORDER BY turn ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var verdict *string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Turn, &t.Query, &t.Answer, &verdict, &t.ContextIDs, &t.CreatedAt); err != nil {
			return nil, err
		}
		if verdict != nil {
			t.VerdictSummary = *verdict
		}
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}

// NextTurnNumber returns the 1-based turn number for the session's next
// turn.
func (r *ConversationRepository) NextTurnNumber(ctx context.Context, sessionID string) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(turn), 0) + 1 FROM conversation_turns WHERE session_id = $1`,
		sessionID,
	).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}
