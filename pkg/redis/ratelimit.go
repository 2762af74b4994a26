package redis

import (
	"context"
	"strconv"
	"time"
)

// FixedWindowAllow counts a hit against scope in the current window and
// reports whether the count is still within limit.
//
// Counters are keyed by window index, so a counter whose EXPIRE never landed
// still stops mattering once the window rolls over.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.store == nil {
		return false, 0, errNotInitialized
	}
	if window <= 0 {
		window = time.Minute
	}
	bucket := c.clock().UnixNano() / int64(window)
	key := c.RateLimitKey(scope) + ":" + strconv.FormatInt(bucket, 10)

	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := c.store.Expire(ctx, key, window).Err(); err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}
