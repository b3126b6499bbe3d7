package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/richardliu001/ticket-service/internal/domain"
)

// ErrCacheDisabled is returned by cache calls when no redis client is configured.
var ErrCacheDisabled = errors.New("cache disabled")

func availabilityKey(id domain.EventID) string {
	return fmt.Sprintf("availability:%s", id)
}

// lowerAvailability only replaces a cached count with a smaller one. Open spots
// never grow back, so a late write from an older commit cannot win.
var lowerAvailability = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and tonumber(cur) <= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// CacheAvailability writes the open spot count to Redis unless a lower count
// is already cached.
func (r *Repository) CacheAvailability(ctx context.Context, id domain.EventID, available int) error {
	if r.rdb == nil {
		return ErrCacheDisabled
	}
	return lowerAvailability.Run(ctx, r.rdb, []string{availabilityKey(id)}, available, r.cacheTTL.Milliseconds()).Err()
}

// GetCachedAvailability reads Redis. A miss surfaces as redis.Nil.
func (r *Repository) GetCachedAvailability(ctx context.Context, id domain.EventID) (int, error) {
	if r.rdb == nil {
		return 0, ErrCacheDisabled
	}
	return r.rdb.Get(ctx, availabilityKey(id)).Int()
}
