package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("intent-metrics")

// IntentMetrics provides metrics collection for review intents
type IntentMetrics struct {
	intentsDispatchedCounter  metric.Int64Counter
	intentsConfirmedCounter   metric.Int64Counter
	intentsFailedCounter      metric.Int64Counter
	intentDurationHistogram   metric.Float64Histogram
	resolvingConflictsGauge   metric.Int64UpDownCounter
	conflictsFinalizedCounter metric.Int64Counter
}

// NewIntentMetrics creates a new intent metrics collector
func NewIntentMetrics() (*IntentMetrics, error) {
	intentsDispatchedCounter, err := meter.Int64Counter(
		"review_orchestrator.intents.dispatched",
		metric.WithDescription("Total number of intents dispatched to the executor"),
		metric.WithUnit("{intent}"),
	)
	if err != nil {
		return nil, err
	}

	intentsConfirmedCounter, err := meter.Int64Counter(
		"review_orchestrator.intents.confirmed",
		metric.WithDescription("Total number of intents confirmed and applied"),
		metric.WithUnit("{intent}"),
	)
	if err != nil {
		return nil, err
	}

	intentsFailedCounter, err := meter.Int64Counter(
		"review_orchestrator.intents.failed",
		metric.WithDescription("Total number of intents that failed"),
		metric.WithUnit("{intent}"),
	)
	if err != nil {
		return nil, err
	}

	intentDurationHistogram, err := meter.Float64Histogram(
		"review_orchestrator.intent.duration",
		metric.WithDescription("Duration of intent round-trips in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	resolvingConflictsGauge, err := meter.Int64UpDownCounter(
		"review_orchestrator.conflicts.resolving",
		metric.WithDescription("Number of conflicts currently mid-resolution"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	conflictsFinalizedCounter, err := meter.Int64Counter(
		"review_orchestrator.conflicts.finalized",
		metric.WithDescription("Total number of conflict resolutions finalized, by outcome"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	return &IntentMetrics{
		intentsDispatchedCounter:  intentsDispatchedCounter,
		intentsConfirmedCounter:   intentsConfirmedCounter,
		intentsFailedCounter:      intentsFailedCounter,
		intentDurationHistogram:   intentDurationHistogram,
		resolvingConflictsGauge:   resolvingConflictsGauge,
		conflictsFinalizedCounter: conflictsFinalizedCounter,
	}, nil
}

// RecordIntentDispatched records an intent being sent to the executor
func (im *IntentMetrics) RecordIntentDispatched(ctx context.Context, operation string) {
	im.intentsDispatchedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent.operation", operation),
		),
	)
}

// RecordIntentConfirmed records a confirmed and applied intent
func (im *IntentMetrics) RecordIntentConfirmed(ctx context.Context, operation string, duration time.Duration) {
	im.intentsConfirmedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent.operation", operation),
			attribute.String("status", "confirmed"),
		),
	)
	im.intentDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("intent.operation", operation),
			attribute.String("status", "confirmed"),
		),
	)
}

// RecordIntentFailed records a failed intent
func (im *IntentMetrics) RecordIntentFailed(ctx context.Context, operation, errorType string, duration time.Duration) {
	im.intentsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent.operation", operation),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	im.intentDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("intent.operation", operation),
			attribute.String("status", "failed"),
		),
	)
}

// RecordConflictResolving records a conflict entering resolution
func (im *IntentMetrics) RecordConflictResolving(ctx context.Context, conflictID string) {
	im.resolvingConflictsGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("conflict.id", conflictID),
		),
	)
}

// RecordConflictFinalized records a conflict leaving resolution. The gauge
// decrement carries the same attribute set as the increment so each stream
// nets to zero; the outcome lands on its own counter.
func (im *IntentMetrics) RecordConflictFinalized(ctx context.Context, conflictID, outcome string) {
	im.resolvingConflictsGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("conflict.id", conflictID),
		),
	)
	im.conflictsFinalizedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("conflict.id", conflictID),
			attribute.String("outcome", outcome),
		),
	)
}
