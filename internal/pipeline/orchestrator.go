package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/telemetry"
	"github.com/google/uuid"
)

// RetryConfig bounds per-stage retries.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig retries each stage up to 3 times with exponential
// backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Orchestrator sequences the batch stages for one campaign run. Stages are
// not re-orderable: each stage consumes only the prior stage's persisted,
// validated output. Independent runs may execute concurrently; each run's
// entities are written by exactly one orchestrator invocation.
type Orchestrator struct {
	runs     RunStore
	contents ContentStore
	insights InsightStore
	queue    EmbeddingQueue
	scout    *Scout
	cleaner  *Cleaner
	analyst  *Analyst
	cfg      RetryConfig
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator wires an orchestrator with the default retry policy.
func NewOrchestrator(
	runs RunStore,
	contents ContentStore,
	insights InsightStore,
	queue EmbeddingQueue,
	scout *Scout,
	cleaner *Cleaner,
	analyst *Analyst,
) *Orchestrator {
	return NewOrchestratorWithConfig(runs, contents, insights, queue, scout, cleaner, analyst, DefaultRetryConfig())
}

// NewOrchestratorWithConfig wires an orchestrator with an explicit retry
// policy.
func NewOrchestratorWithConfig(
	runs RunStore,
	contents ContentStore,
	insights InsightStore,
	queue EmbeddingQueue,
	scout *Scout,
	cleaner *Cleaner,
	analyst *Analyst,
	cfg RetryConfig,
) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	return &Orchestrator{
		runs:     runs,
		contents: contents,
		insights: insights,
		queue:    queue,
		scout:    scout,
		cleaner:  cleaner,
		analyst:  analyst,
		cfg:      cfg,
		sleep:    sleepCtx,
	}
}

// Run executes the full pipeline for a campaign. Stage failures never
// propagate as errors: they land in the run's state and attempt ledger.
// The returned error covers only infrastructure failures (persistence).
func (o *Orchestrator) Run(ctx context.Context, campaign *domain.Campaign) (*domain.PipelineRun, error) {
	if err := domain.ValidateCampaign(campaign); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid campaign", err)
	}

	run := &domain.PipelineRun{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		State:      domain.RunStatePending,
		StartedAt:  time.Now().UTC(),
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}

	return o.execute(ctx, campaign, run)
}

// Start creates the run record and executes the pipeline in the
// background, detached from the caller's context. The returned run is a
// snapshot taken before execution begins.
func (o *Orchestrator) Start(ctx context.Context, campaign *domain.Campaign) (*domain.PipelineRun, error) {
	if err := domain.ValidateCampaign(campaign); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid campaign", err)
	}

	run := &domain.PipelineRun{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		State:      domain.RunStatePending,
		StartedAt:  time.Now().UTC(),
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}

	snapshot := *run
	go func() {
		if _, err := o.execute(context.WithoutCancel(ctx), campaign, run); err != nil {
			log.Printf("pipeline run %s: %v", run.ID, err)
		}
	}()
	return &snapshot, nil
}

// Resume re-enters a run after a restart or transient failure, skipping
// stages that already have a succeeded attempt. Given identical raw input
// the resumed run produces the same ContentItem/Insight set as an
// uninterrupted one, because persistence is keyed by content identity.
func (o *Orchestrator) Resume(ctx context.Context, campaign *domain.Campaign, runID string) (*domain.PipelineRun, error) {
	run, err := o.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Terminal() && run.State == domain.RunStateDone {
		return run, nil
	}
	if run.State == domain.RunStateFailed {
		// A failed run is resumed as a fresh pass over its incomplete
		// stages; the attempt ledger keeps the prior history.
		run.FailReason = ""
	}

	return o.execute(ctx, campaign, run)
}

func (o *Orchestrator) execute(ctx context.Context, campaign *domain.Campaign, run *domain.PipelineRun) (*domain.PipelineRun, error) {
	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.execute", telemetry.SpanAttributes{
		CampaignID: campaign.ID,
		RunID:      run.ID,
		Operation:  "pipeline",
	})
	defer span.End()

	for _, stage := range domain.Stages() {
		if run.StageSucceeded(stage) {
			continue
		}

		// Cancellation is honored between stage boundaries only.
		if err := ctx.Err(); err != nil {
			return run, o.failRun(run, fmt.Sprintf("cancelled before stage %s: %v", stage, err))
		}

		if err := o.enterStage(ctx, run, domain.StateForStage(stage)); err != nil {
			return run, err
		}

		if err := o.runStageWithRetry(ctx, campaign, run, stage); err != nil {
			return run, o.failRun(run, fmt.Sprintf("stage %s failed: %v", stage, err))
		}
	}

	completedAt := time.Now().UTC()
	run.State = domain.RunStateDone
	run.CompletedAt = &completedAt
	if err := o.runs.UpdateRunState(context.WithoutCancel(ctx), run.ID, domain.RunStateDone, "", &completedAt); err != nil {
		return run, fmt.Errorf("failed to mark run done: %w", err)
	}

	log.Printf("pipeline run %s completed for campaign %s", run.ID, campaign.ID)
	return run, nil
}

// failRun marks the run failed with the reason verbatim. The write uses a
// detached context so cancellation does not lose the terminal record.
func (o *Orchestrator) failRun(run *domain.PipelineRun, reason string) error {
	run.State = domain.RunStateFailed
	run.FailReason = reason
	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt

	if err := o.runs.UpdateRunState(context.WithoutCancel(context.Background()), run.ID, domain.RunStateFailed, reason, &completedAt); err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	log.Printf("pipeline run %s failed: %s", run.ID, reason)
	return nil
}

// enterStage records the stage the run is executing. Stage ordering is
// enforced structurally: the stage loop walks domain.Stages() in order and
// each stage consumes only the prior stage's persisted output, so the
// state column is a projection of the attempt ledger, not a lock. This
// also lets a resumed run re-enter at its first incomplete stage.
func (o *Orchestrator) enterStage(ctx context.Context, run *domain.PipelineRun, to domain.RunState) error {
	run.State = to
	return o.runs.UpdateRunState(ctx, run.ID, to, "", nil)
}

// runStageWithRetry executes one stage with bounded retries and
// exponential backoff. Every attempt is appended to the ledger; history
// is never rewritten. A re-entered stage (resume) gets a fresh budget of
// MaxAttempts on top of the attempts already on record, so a stage that
// exhausted its retries before is tried again rather than silently
// treated as passed. Validation failures are not retried.
func (o *Orchestrator) runStageWithRetry(ctx context.Context, campaign *domain.Campaign, run *domain.PipelineRun, stage domain.Stage) error {
	var lastErr error

	start := run.AttemptCount(stage)
	budget := start + o.cfg.MaxAttempts

	for attempt := start + 1; attempt <= budget; attempt++ {
		rec := domain.StageAttempt{
			ID:        uuid.NewString(),
			RunID:     run.ID,
			Stage:     stage,
			Attempt:   attempt,
			Status:    domain.AttemptStatusRunning,
			StartedAt: time.Now().UTC(),
		}
		if err := o.runs.AppendAttempt(ctx, &rec); err != nil {
			return fmt.Errorf("failed to record stage attempt: %w", err)
		}

		stageErr := o.executeStage(ctx, campaign, run, stage)
		finishedAt := time.Now().UTC()
		rec.FinishedAt = &finishedAt

		if stageErr == nil {
			rec.Status = domain.AttemptStatusSucceeded
			run.Attempts = append(run.Attempts, rec)
			if err := o.runs.FinishAttempt(ctx, rec.ID, domain.AttemptStatusSucceeded, "", finishedAt); err != nil {
				return fmt.Errorf("failed to record stage success: %w", err)
			}
			return nil
		}

		rec.Status = domain.AttemptStatusFailed
		rec.Error = stageErr.Error()
		run.Attempts = append(run.Attempts, rec)
		if err := o.runs.FinishAttempt(ctx, rec.ID, domain.AttemptStatusFailed, stageErr.Error(), finishedAt); err != nil {
			return fmt.Errorf("failed to record stage failure: %w", err)
		}

		lastErr = stageErr
		log.Printf("run %s stage %s attempt %d/%d failed: %v", run.ID, stage, attempt, budget, stageErr)

		if !retryable(stageErr) {
			return lastErr
		}

		if attempt < budget {
			if err := o.sleep(ctx, o.backoff(attempt-start)); err != nil {
				return lastErr
			}
		}
	}

	return lastErr
}

func (o *Orchestrator) executeStage(ctx context.Context, campaign *domain.Campaign, run *domain.PipelineRun, stage domain.Stage) error {
	switch stage {
	case domain.StageScout:
		items, diag, err := o.scout.Run(ctx, campaign, run.ID)
		if err != nil {
			return err
		}
		if err := o.contents.UpsertItems(ctx, items); err != nil {
			return fmt.Errorf("failed to persist scouted items: %w", err)
		}
		log.Printf("run %s scout: %d in, %d out, %d dropped", run.ID, diag.ItemsIn, diag.ItemsOut, diag.Dropped)
		return nil

	case domain.StageCleaner:
		items, err := o.contents.ListByRun(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to load scouted items: %w", err)
		}
		cleaned, diag := o.cleaner.Run(items)
		if err := o.contents.MarkCleaned(ctx, cleaned); err != nil {
			return fmt.Errorf("failed to persist cleaned items: %w", err)
		}
		log.Printf("run %s cleaner: %d in, %d out, %d dropped", run.ID, diag.ItemsIn, diag.ItemsOut, diag.Dropped)
		return nil

	case domain.StageAnalyst:
		items, err := o.contents.ListByRun(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to load cleaned items: %w", err)
		}
		cleaned := items[:0:0]
		for _, it := range items {
			if it.Cleaned() {
				cleaned = append(cleaned, it)
			}
		}
		insights, diag, err := o.analyst.Run(ctx, campaign.Brand, cleaned)
		if err != nil {
			return err
		}
		for i := range insights {
			if err := o.insights.CreateInsight(ctx, &insights[i]); err != nil {
				return fmt.Errorf("failed to persist insight: %w", err)
			}
			if o.queue != nil {
				if err := o.queue.EnqueueInsightEmbedding(ctx, insights[i].ID); err != nil {
					return fmt.Errorf("failed to enqueue embedding job: %w", err)
				}
			}
		}
		log.Printf("run %s analyst: %d in, %d out, %d dropped", run.ID, diag.ItemsIn, diag.ItemsOut, diag.Dropped)
		return nil

	default:
		return fmt.Errorf("unknown stage %s", stage)
	}
}

// retryable distinguishes stage errors worth retrying from ones that will
// fail identically every time.
func retryable(err error) bool {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domain.Retryable(domainErr.Code)
	}
	return true
}

// backoff returns the delay before the next attempt: base doubled per
// attempt, capped.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.cfg.BaseDelay << (attempt - 1)
	if d > o.cfg.MaxDelay {
		d = o.cfg.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
