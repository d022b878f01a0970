package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunRepository struct {
	db dbtx
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: pool}
}

func NewRunRepositoryWithTx(tx pgx.Tx) *RunRepository {
	return &RunRepository{db: tx}
}

func (r *RunRepository) CreateRun(ctx context.Context, run *domain.PipelineRun) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pipeline_runs (id, campaign_id, state, fail_reason, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.CampaignID, run.State, nullableString(run.FailReason), run.StartedAt, run.CompletedAt,
	)
	return err
}

func (r *RunRepository) UpdateRunState(ctx context.Context, runID string, state domain.RunState, failReason string, completedAt *time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE pipeline_runs SET state = $1, fail_reason = $2, completed_at = $3 WHERE id = $4`,
		state, nullableString(failReason), completedAt, runID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// AppendAttempt adds a new record to the attempt ledger. There is no
// corresponding update of prior rows: history is append-only.
func (r *RunRepository) AppendAttempt(ctx context.Context, attempt *domain.StageAttempt) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO stage_attempts (id, run_id, stage, attempt, status, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.ID, attempt.RunID, attempt.Stage, attempt.Attempt, attempt.Status, nullableString(attempt.Error), attempt.StartedAt, attempt.FinishedAt,
	)
	return err
}

// FinishAttempt closes out an attempt's own row with its outcome. Only a
// running attempt can be finished; settled attempts never change.
func (r *RunRepository) FinishAttempt(ctx context.Context, attemptID string, status domain.AttemptStatus, errMsg string, finishedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE stage_attempts SET status = $1, error = $2, finished_at = $3
		 WHERE id = $4 AND status = $5`,
		status, nullableString(errMsg), finishedAt, attemptID, domain.AttemptStatusRunning,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAttemptHistoryFrozen
	}
	return nil
}

func (r *RunRepository) GetRun(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	var failReason *string
	err := r.db.QueryRow(ctx,
		`SELECT id, campaign_id, state, fail_reason, started_at, completed_at
		 FROM pipeline_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.CampaignID, &run.State, &failReason, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	if failReason != nil {
		run.FailReason = *failReason
	}

	attempts, err := r.listAttempts(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Attempts = attempts
	return &run, nil
}

func (r *RunRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.PipelineRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, campaign_id, state, fail_reason, started_at, completed_at
		 FROM pipeline_runs WHERE campaign_id = $1 ORDER BY started_at DESC`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.PipelineRun
	for rows.Next() {
		var run domain.PipelineRun
		var failReason *string
		if err := rows.Scan(&run.ID, &run.CampaignID, &run.State, &failReason, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		if failReason != nil {
			run.FailReason = *failReason
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ActiveRunForCampaign returns the campaign's non-terminal run, if any.
func (r *RunRepository) ActiveRunForCampaign(ctx context.Context, campaignID string) (*domain.PipelineRun, error) {
	var runID string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM pipeline_runs
		 WHERE campaign_id = $1 AND state NOT IN ($2, $3)
		 ORDER BY started_at DESC LIMIT 1`,
		campaignID, domain.RunStateDone, domain.RunStateFailed,
	).Scan(&runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return r.GetRun(ctx, runID)
}

func (r *RunRepository) listAttempts(ctx context.Context, runID string) ([]domain.StageAttempt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, stage, attempt, status, error, started_at, finished_at
		 FROM stage_attempts WHERE run_id = $1 ORDER BY started_at ASC, attempt ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.StageAttempt
	for rows.Next() {
		var a domain.StageAttempt
		var errMsg *string
		if err := rows.Scan(&a.ID, &a.RunID, &a.Stage, &a.Attempt, &a.Status, &errMsg, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		if errMsg != nil {
			a.Error = *errMsg
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
