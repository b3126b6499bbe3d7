package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richardliu001/ticket-service/internal/clock"
	"github.com/richardliu001/ticket-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Store is the slice of the repository the relay needs. It only touches the outbox table.
type Store interface {
	ListUnpublishedOutbox(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
	RecordPublishFailure(ctx context.Context, id, reason string, retryAt time.Time) (int, error)
}

// Publisher delivers one record. A nil return means the broker accepted it.
type Publisher interface {
	Publish(ctx context.Context, evt model.OutboxEvent) error
}

// Result summarises one batch.
type Result struct {
	Published int
	Failed    int
	Stuck     int
}

// Relay moves committed outbox rows to the broker. Delivery is at-least-once:
// a crash between publish and MarkPublished sends the record again.
type Relay struct {
	store          Store
	pub            Publisher
	log            *zap.SugaredLogger
	clock          clock.Clock
	metrics        *Metrics
	tracer         trace.Tracer
	wake           chan struct{}
	batchSize      int
	interval       time.Duration
	publishTimeout time.Duration
	alertAfter     int
	baseBackoff    time.Duration
	maxBackoff     time.Duration
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithPublishTimeout bounds each single Publish call.
func WithPublishTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.publishTimeout = d
		}
	}
}

// WithAlertAfter sets how many failed attempts make a record stuck.
func WithAlertAfter(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.alertAfter = n
		}
	}
}

// WithBackoff sets the first retry delay and its ceiling.
func WithBackoff(base, max time.Duration) Option {
	return func(r *Relay) {
		if base > 0 {
			r.baseBackoff = base
		}
		if max > 0 {
			r.maxBackoff = max
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(r *Relay) { r.clock = c }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func NewRelay(store Store, pub Publisher, logger *zap.SugaredLogger, opts ...Option) *Relay {
	r := &Relay{
		store:          store,
		pub:            pub,
		log:            logger,
		clock:          clock.NewSystem(),
		tracer:         otel.Tracer("ticket-service/outbox"),
		wake:           make(chan struct{}, 1),
		batchSize:      100,
		interval:       time.Second,
		publishTimeout: 5 * time.Second,
		alertAfter:     5,
		baseBackoff:    time.Second,
		maxBackoff:     time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Notify asks Run for an early cycle. It never blocks.
func (r *Relay) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run processes batches on every tick or Notify until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.log.Infow("outbox relay started",
		"interval", r.interval, "batch_size", r.batchSize, "alert_after", r.alertAfter)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopping")
			return
		case <-ticker.C:
		case <-r.wake:
		}
		res, err := r.ProcessBatch(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.log.Errorw("outbox batch failed", "error", err)
			}
			continue
		}
		if res.Published > 0 || res.Failed > 0 {
			r.log.Debugw("outbox batch done",
				"published", res.Published, "failed", res.Failed, "stuck", res.Stuck)
		}
	}
}

// ProcessBatch runs one relay cycle. A failing record is deferred and the
// cycle moves on to the next one.
func (r *Relay) ProcessBatch(ctx context.Context) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "Relay.ProcessBatch")
	defer span.End()

	rows, err := r.store.ListUnpublishedOutbox(ctx, r.clock.Now(), r.batchSize)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("list outbox: %w", err)
	}
	span.SetAttributes(attribute.Int("batch.size", len(rows)))

	var res Result
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.publish(ctx, row); err != nil {
			res.Failed++
			if r.recordFailure(ctx, row, err) {
				res.Stuck++
			}
			continue
		}
		if err := r.store.MarkPublished(ctx, row.ID); err != nil {
			// the broker has it; the next cycle will send it again
			r.log.Errorw("mark published failed", "outbox_id", row.ID, "error", err)
			continue
		}
		res.Published++
		r.metrics.RecordPublished(ctx, row.Kind)
		r.log.Debugw("outbox record published", "outbox_id", row.ID, "kind", row.Kind)
	}
	span.SetAttributes(
		attribute.Int("batch.published", res.Published),
		attribute.Int("batch.failed", res.Failed),
	)
	return res, nil
}

func (r *Relay) publish(ctx context.Context, row model.OutboxEvent) error {
	pctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	err := r.pub.Publish(pctx, row)
	if err == nil && errors.Is(pctx.Err(), context.DeadlineExceeded) {
		// a late success is still a timeout
		err = pctx.Err()
	}
	return err
}

// recordFailure stores the failure and reports whether the record is now stuck.
func (r *Relay) recordFailure(ctx context.Context, row model.OutboxEvent, cause error) bool {
	r.metrics.RecordFailed(ctx, row.Kind)

	retryAt := r.clock.Now().Add(r.backoff(row.Attempts + 1))
	attempts, err := r.store.RecordPublishFailure(ctx, row.ID, cause.Error(), retryAt)
	if err != nil {
		r.log.Errorw("record publish failure failed",
			"outbox_id", row.ID, "publish_error", cause, "error", err)
		return false
	}
	if attempts >= r.alertAfter {
		r.metrics.RecordStuck(ctx, row.Kind, attempts)
		r.log.Errorw("outbox record stuck",
			"outbox_id", row.ID, "kind", row.Kind, "aggregate_id", row.AggregateID,
			"attempts", attempts, "error", cause)
		return true
	}
	r.log.Warnw("outbox publish failed, will retry",
		"outbox_id", row.ID, "attempts", attempts, "retry_at", retryAt, "error", cause)
	return false
}

// backoff doubles per attempt starting at baseBackoff, capped at maxBackoff.
func (r *Relay) backoff(attempt int) time.Duration {
	d := r.baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.maxBackoff {
			return r.maxBackoff
		}
	}
	if d > r.maxBackoff {
		return r.maxBackoff
	}
	return d
}
