package outbox

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("ticket-service/outbox")

// Metrics counts relay outcomes per event kind.
type Metrics struct {
	publishedCounter metric.Int64Counter
	failedCounter    metric.Int64Counter
	stuckCounter     metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	publishedCounter, err := meter.Int64Counter(
		"outbox.records.published",
		metric.WithDescription("Outbox records delivered to the broker"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	failedCounter, err := meter.Int64Counter(
		"outbox.records.failed",
		metric.WithDescription("Failed delivery attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	stuckCounter, err := meter.Int64Counter(
		"outbox.records.stuck",
		metric.WithDescription("Failed attempts on records past the alert threshold"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		publishedCounter: publishedCounter,
		failedCounter:    failedCounter,
		stuckCounter:     stuckCounter,
	}, nil
}

func (m *Metrics) RecordPublished(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.publishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event.kind", kind)))
}

func (m *Metrics) RecordFailed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.failedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event.kind", kind)))
}

// RecordStuck is the operator-facing signal for a record that keeps failing.
func (m *Metrics) RecordStuck(ctx context.Context, kind string, attempts int) {
	if m == nil {
		return
	}
	m.stuckCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.kind", kind),
		attribute.Int("attempts", attempts),
	))
}
