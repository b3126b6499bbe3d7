package outbox

import (
	"github.com/richardliu001/ticket-service/internal/config"
	"go.uber.org/zap"
)

// FromConfig builds a relay from the outbox config section. The first retry
// waits one poll interval.
func FromConfig(cfg config.OutboxConfig, store Store, pub Publisher, log *zap.SugaredLogger) *Relay {
	opts := []Option{
		WithBatchSize(cfg.BatchSize),
		WithInterval(cfg.Interval),
		WithPublishTimeout(cfg.PublishTimeout),
		WithAlertAfter(cfg.AlertAfter),
		WithBackoff(cfg.Interval, cfg.MaxBackoff),
	}
	m, err := NewMetrics()
	if err != nil {
		log.Warnw("outbox metrics disabled", "error", err)
	} else {
		opts = append(opts, WithMetrics(m))
	}
	return NewRelay(store, pub, log, opts...)
}
