package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	Limit  int
	Window time.Duration
	// Block is the cooldown applied once Limit is exceeded. Zero means the
	// caller only waits out the window.
	Block time.Duration
}

// DefaultChat is the chat endpoint policy: 30 messages a minute, then a
// one minute cooldown.
var DefaultChat = Config{Limit: 30, Window: 60 * time.Second, Block: 60 * time.Second}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func (c Config) normalized() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultChat.Limit
	}
	if c.Window <= 0 {
		c.Window = DefaultChat.Window
	}
	if c.Block < 0 {
		c.Block = 0
	}
	return c
}

func (c Config) retryAfter() time.Duration {
	if c.Block > 0 {
		return c.Block
	}
	return c.Window
}

type memoryLimiter struct {
	cfg     Config
	now     func() time.Time
	mu      sync.Mutex
	hits    map[string][]time.Time
	blocked map[string]time.Time
}

// NewMemory returns a sliding-window limiter for single-process deployments.
func NewMemory(cfg Config) Limiter {
	return &memoryLimiter{
		cfg:     cfg.normalized(),
		now:     time.Now,
		hits:    map[string][]time.Time{},
		blocked: map[string]time.Time{},
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	if until, ok := l.blocked[key]; ok {
		if now.Before(until) {
			return Decision{RetryAfter: until.Sub(now)}, nil
		}
		delete(l.blocked, key)
	}

	cutoff := now.Add(-l.cfg.Window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.cfg.Limit {
		l.hits[key] = kept
		if l.cfg.Block > 0 {
			l.blocked[key] = now.Add(l.cfg.Block)
		}
		return Decision{RetryAfter: l.cfg.retryAfter()}, nil
	}
	l.hits[key] = append(kept, now)
	return Decision{Allowed: true, Remaining: l.cfg.Limit - len(kept) - 1}, nil
}

type redisLimiter struct {
	rdb *goredis.Client
	cfg Config
}

// NewRedis returns a fixed-window limiter shared by every replica.
func NewRedis(rdb *goredis.Client, cfg Config) Limiter {
	return &redisLimiter{rdb: rdb, cfg: cfg.normalized()}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	blockKey := "advisor:rl:block:" + key
	countKey := "advisor:rl:count:" + key

	ttl, err := l.rdb.TTL(ctx, blockKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit ttl: %w", err)
	}
	if ttl > 0 {
		return Decision{RetryAfter: ttl}, nil
	}

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, countKey)
	pipe.ExpireNX(ctx, countKey, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	n := int(incr.Val())
	if n > l.cfg.Limit {
		if l.cfg.Block > 0 {
			if err := l.rdb.Set(ctx, blockKey, 1, l.cfg.Block).Err(); err != nil {
				return Decision{}, fmt.Errorf("ratelimit block: %w", err)
			}
		}
		return Decision{RetryAfter: l.cfg.retryAfter()}, nil
	}
	return Decision{Allowed: true, Remaining: l.cfg.Limit - n}, nil
}
