package messaging

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafka.Reader in consumer group mode.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Handler processes one decoded envelope.
type Handler func(ctx context.Context, env model.Envelope) error

// Consumer reads envelopes, drops redeliveries by event id and commits after handling.
type Consumer struct {
	r           MessageReader
	dedup       *Deduplicator
	handle      Handler
	log         *zap.SugaredLogger
	maxAttempts int
	retryDelay  time.Duration
}

func NewConsumer(r MessageReader, dedup *Deduplicator, h Handler, logger *zap.SugaredLogger) *Consumer {
	return &Consumer{
		r:           r,
		dedup:       dedup,
		handle:      h,
		log:         logger,
		maxAttempts: 3,
		retryDelay:  500 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer started")
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopping")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.log.Errorw("fetch message failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		if err := c.handleWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Errorw("giving up on message",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Errorw("commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.HandleMessage(ctx, msg); err == nil {
			return nil
		}
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return err
}

// HandleMessage processes msg once. Malformed payloads are logged and skipped,
// already processed event ids are acknowledged without calling the handler.
// A failed handler releases its claim so the message can be handled again.
func (c *Consumer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	env, err := model.DecodeEnvelope(msg.Value)
	if err != nil {
		c.log.Warnw("skipping malformed message", "offset", msg.Offset, "error", err)
		return nil
	}

	fresh, err := c.dedup.Claim(ctx, env.ID)
	if err != nil {
		return err
	}
	if !fresh {
		c.log.Debugw("duplicate event ignored", "event_id", env.ID, "kind", env.Kind)
		return nil
	}

	if err := c.handle(ctx, env); err != nil {
		if rerr := c.dedup.Release(ctx, env.ID); rerr != nil {
			c.log.Warnw("release dedup key failed", "event_id", env.ID, "error", rerr)
		}
		return err
	}
	if err := c.dedup.Confirm(ctx, env.ID); err != nil {
		// handled already; a redelivery would only repeat the work
		c.log.Warnw("confirm dedup key failed", "event_id", env.ID, "error", err)
	}
	return nil
}
