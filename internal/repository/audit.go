package repository

import (
	"context"
	"encoding/json"

	"github.com/brandpulse-ai/brandpulse/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository stores guardrail decisions for evaluation and tuning of
// the safety layers.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) CreateAuditEntry(ctx context.Context, entry service.GuardrailAuditEntry) (string, error) {
	detail := map[string]any{
		"query_length": len(entry.Query),
	}
	if entry.LowConfidence {
		detail["low_confidence"] = true
	}
	if entry.Crisis {
		detail["crisis"] = true
	}

	detailJSON, _ := json.Marshal(detail)
	categoriesJSON, _ := json.Marshal(entry.Categories)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO guardrail_audit (session_id, direction, layer, action, categories, detail, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		nullableString(entry.SessionID),
		entry.Direction,
		entry.Layer,
		entry.Action,
		categoriesJSON,
		detailJSON,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
