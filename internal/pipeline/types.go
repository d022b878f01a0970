package pipeline

import (
	"context"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
)

// RawItem is one unit of content as returned by a source collector.
type RawItem struct {
	Platform   string
	ExternalID string
	Text       string
	PostedAt   time.Time
}

// Collector fetches raw content from a platform. Platform-specific
// crawling lives behind this interface and is out of scope here.
type Collector interface {
	Fetch(ctx context.Context, query, platform string) ([]RawItem, error)
}

// Archiver stores raw fetched payloads for later audit. Optional.
type Archiver interface {
	ArchiveRaw(ctx context.Context, campaignID, runID, contentKey string, payload []byte) error
}

// Diagnostics summarizes what a stage node did with its input.
type Diagnostics struct {
	ItemsIn  int
	ItemsOut int
	Dropped  int
}

// RunStore persists pipeline runs and their append-only attempt ledger.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.PipelineRun) error
	UpdateRunState(ctx context.Context, runID string, state domain.RunState, failReason string, completedAt *time.Time) error
	AppendAttempt(ctx context.Context, attempt *domain.StageAttempt) error
	FinishAttempt(ctx context.Context, attemptID string, status domain.AttemptStatus, errMsg string, finishedAt time.Time) error
	GetRun(ctx context.Context, runID string) (*domain.PipelineRun, error)
}

// ContentStore persists content items. Upserts are keyed by content
// identity so a resumed run can re-enter idempotently.
type ContentStore interface {
	UpsertItems(ctx context.Context, items []domain.ContentItem) error
	MarkCleaned(ctx context.Context, items []domain.ContentItem) error
	ListByRun(ctx context.Context, runID string) ([]domain.ContentItem, error)
}

// InsightStore persists analyst output.
type InsightStore interface {
	CreateInsight(ctx context.Context, insight *domain.Insight) error
}

// EmbeddingQueue enqueues async embedding generation for an insight.
type EmbeddingQueue interface {
	EnqueueInsightEmbedding(ctx context.Context, insightID string) error
}
