package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	HeaderEventID   = "event-id"
	HeaderEventKind = "event-kind"
)

// ErrBrokerUnavailable is returned while the circuit breaker is open.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher sends outbox rows to Kafka. After repeated failures the
// breaker opens and calls fail fast until the broker has had time to recover.
type KafkaPublisher struct {
	w   MessageWriter
	cb  *gobreaker.CircuitBreaker
	log *zap.SugaredLogger
}

type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func NewKafkaPublisher(w MessageWriter, bc BreakerConfig, logger *zap.SugaredLogger) *KafkaPublisher {
	if bc.ConsecutiveFailures == 0 {
		bc.ConsecutiveFailures = 5
	}
	if bc.OpenTimeout == 0 {
		bc.OpenTimeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "kafka-writer",
		MaxRequests: 1,
		Timeout:     bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	}
	return &KafkaPublisher{w: w, cb: gobreaker.NewCircuitBreaker(settings), log: logger}
}

// NewMessage maps an outbox row onto a Kafka message keyed by aggregate id, so
// facts about one aggregate stay on one partition.
func NewMessage(evt model.OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(evt.AggregateID),
		Value: []byte(evt.Payload),
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(evt.ID)},
			{Key: HeaderEventKind, Value: []byte(evt.Kind)},
		},
		Time: evt.CreatedAt,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt model.OutboxEvent) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.w.WriteMessages(ctx, NewMessage(evt))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("write %s %s: %w", evt.Kind, evt.ID, err)
	}
	return nil
}

// State reports the current breaker state.
func (p *KafkaPublisher) State() gobreaker.State {
	return p.cb.State()
}
