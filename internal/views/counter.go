package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "views:"

// Counter buffers per-video view increments until a flush folds them into the
// repository.
type Counter interface {
	// Record adds one view for the given video.
	Record(ctx context.Context, videoID string) error
	// Drain atomically takes all buffered increments, leaving the counter
	// empty. Increments recorded while a drain is in flight land in the
	// next drain.
	Drain(ctx context.Context) (map[string]int64, error)
}

// RedisCounter keeps view increments in Redis so they survive restarts and
// are shared across replicas.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter wraps the provided client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Record(ctx context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return fmt.Errorf("record view: video id is required")
	}
	if err := c.client.Incr(ctx, redisKeyPrefix+videoID).Err(); err != nil {
		return fmt.Errorf("record view for %s: %w", videoID, err)
	}
	return nil
}

func (c *RedisCounter) Drain(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan view keys: %w", err)
		}
		for _, key := range keys {
			value, err := c.client.GetDel(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return counts, fmt.Errorf("drain view key %s: %w", key, err)
			}
			delta, err := strconv.ParseInt(value, 10, 64)
			if err != nil || delta <= 0 {
				continue
			}
			counts[strings.TrimPrefix(key, redisKeyPrefix)] += delta
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return counts, nil
}

// Ping reports whether the Redis backend is reachable.
func (c *RedisCounter) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping view counter: %w", err)
	}
	return nil
}

// Restore puts increments back into the counter, used when a flush could not
// deliver them.
func (c *RedisCounter) Restore(ctx context.Context, counts map[string]int64) error {
	for videoID, delta := range counts {
		if delta <= 0 {
			continue
		}
		if err := c.client.IncrBy(ctx, redisKeyPrefix+videoID, delta).Err(); err != nil {
			return fmt.Errorf("restore views for %s: %w", videoID, err)
		}
	}
	return nil
}

// MemoryCounter is the in-process fallback used when Redis is not configured.
// Buffered increments are lost on restart.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryCounter returns an empty in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

func (c *MemoryCounter) Record(_ context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return fmt.Errorf("record view: video id is required")
	}
	c.mu.Lock()
	c.counts[videoID]++
	c.mu.Unlock()
	return nil
}

func (c *MemoryCounter) Drain(_ context.Context) (map[string]int64, error) {
	c.mu.Lock()
	counts := c.counts
	c.counts = make(map[string]int64)
	c.mu.Unlock()
	return counts, nil
}

func (c *MemoryCounter) Restore(_ context.Context, counts map[string]int64) error {
	c.mu.Lock()
	for videoID, delta := range counts {
		if delta > 0 {
			c.counts[videoID] += delta
		}
	}
	c.mu.Unlock()
	return nil
}
