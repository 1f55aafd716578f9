package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultWindowLimit = 10
	defaultWindow      = time.Minute
)

// FixedWindow counts hits per key in fixed time windows backed by Redis.
// Key format: ratelimit:<key>:<window_start_unix>
type FixedWindow struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewFixedWindow creates a counter allowing limit hits per window. Zero or
// negative values fall back to the defaults.
func NewFixedWindow(client *redis.Client, limit int64, window time.Duration) *FixedWindow {
	if limit <= 0 {
		limit = defaultWindowLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &FixedWindow{client: client, limit: limit, window: window}
}

// Hit increments the counter for key in the current window and reports
// whether the limit is now exceeded. The window key expires on its own.
func (w *FixedWindow) Hit(ctx context.Context, key string) (bool, error) {
	redisKey := w.key(key, time.Now())

	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, w.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit hit: %w", err)
	}

	return incr.Val() > w.limit, nil
}

func (w *FixedWindow) key(key string, now time.Time) string {
	windowStart := now.Unix() - now.Unix()%int64(w.window/time.Second)
	return fmt.Sprintf("ratelimit:%s:%d", key, windowStart)
}
