package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	stateProcessing = "processing"
	stateDone       = "done"

	// claimTTL bounds how long an interrupted handler keeps its claim.
	claimTTL = 5 * time.Minute
	// cleanupTimeout bounds Confirm and Release, which outlive the caller's ctx.
	cleanupTimeout = 3 * time.Second
)

// Deduplicator remembers processed event ids in Redis. An id is first claimed
// as processing with a short ttl and only marked done once handled. A nil
// Deduplicator treats every id as new.
type Deduplicator struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewDeduplicator(rdb redis.Cmdable, ttl time.Duration) *Deduplicator {
	return &Deduplicator{rdb: rdb, ttl: ttl}
}

func dedupKey(id string) string {
	return "processed:" + id
}

// Claim reports whether id still needs handling. A claim left in processing
// state means an earlier run never finished, so it is taken over.
func (d *Deduplicator) Claim(ctx context.Context, id string) (bool, error) {
	if d == nil {
		return true, nil
	}
	ok, err := d.rdb.SetNX(ctx, dedupKey(id), stateProcessing, claimTTL).Result()
	if err != nil || ok {
		return ok, err
	}
	state, err := d.rdb.Get(ctx, dedupKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return state != stateDone, nil
}

// Confirm marks id as done for the full ttl.
func (d *Deduplicator) Confirm(ctx context.Context, id string) error {
	if d == nil {
		return nil
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	return d.rdb.Set(ctx, dedupKey(id), stateDone, d.ttl).Err()
}

// Release forgets id so a redelivery is processed again. It runs even when ctx
// is already cancelled.
func (d *Deduplicator) Release(ctx context.Context, id string) error {
	if d == nil {
		return nil
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	return d.rdb.Del(ctx, dedupKey(id)).Err()
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}
