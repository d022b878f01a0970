// Package telemetry provides Sentry-based tracing for the service.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const serviceName = "brandpulse"

// Config holds the Sentry initialization settings.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry with tracing and returns a shutdown function
// that flushes pending events. An empty DSN yields a no-op shutdown; an
// init failure is logged, not fatal, so the service runs untraced rather
// than not at all.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler: sentry.TracesSampler(func(sc sentry.SamplingContext) float64 {
			// Child spans follow the parent's sampling decision.
			var root sentry.SpanID
			if sc.Span.ParentSpanID != root {
				if sc.Span.Sampled.Bool() {
					return 1.0
				}
				return 0.0
			}
			return cfg.TracesSampleRate
		}),
	})
	if err != nil {
		log.Printf("sentry: failed to initialize (continuing without tracing): %v", err)
		return func() {}, nil
	}

	log.Printf("sentry: tracing initialized (environment: %s, sample_rate: %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

// SpanAttributes carries the identifiers that make a trace filterable.
type SpanAttributes struct {
	CampaignID string
	RunID      string
	SessionID  string
	Operation  string
}

// Span wraps sentry.Span so call sites stay no-ops when tracing is off.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and reports the error.
func (s *Span) SetError(err error) {
	if s.inner == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

// StartSpan opens a span named after the operation. Inside an existing
// transaction it becomes a child span; otherwise it starts a new
// transaction, which is what happens for background pipeline work.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.CampaignID != "" {
		span.SetTag("campaign_id", attrs.CampaignID)
	}
	if attrs.RunID != "" {
		span.SetTag("run_id", attrs.RunID)
	}
	if attrs.SessionID != "" {
		span.SetTag("session_id", attrs.SessionID)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}

	return span.Context(), &Span{inner: span}
}
