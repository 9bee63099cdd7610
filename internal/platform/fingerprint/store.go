package fingerprint

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store keeps the most recent assistant reply fingerprints per chat session,
// newest first.
type Store interface {
	Recent(ctx context.Context, sessionID string, n int) ([]string, error)
	Push(ctx context.Context, sessionID, fp string) error
}

const DefaultKeep = 10

type redisStore struct {
	rdb  *goredis.Client
	ttl  time.Duration
	keep int64
}

func NewRedisStore(rdb *goredis.Client, ttl time.Duration, keep int) Store {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &redisStore{rdb: rdb, ttl: ttl, keep: int64(keep)}
}

func redisKey(sessionID string) string {
	return "advisor:fp:" + sessionID
}

func (s *redisStore) Recent(ctx context.Context, sessionID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	out, err := s.rdb.LRange(ctx, redisKey(sessionID), 0, int64(n-1)).Result()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("fingerprint lrange: %w", err)
	}
	return out, nil
}

func (s *redisStore) Push(ctx context.Context, sessionID, fp string) error {
	if fp == "" {
		return nil
	}
	key := redisKey(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, fp)
	pipe.LTrim(ctx, key, 0, s.keep-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fingerprint push: %w", err)
	}
	return nil
}

type memoryEntry struct {
	fps     []string
	expires time.Time
}

type memoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	keep int
	now  func() time.Time
	data map[string]*memoryEntry
}

// NewMemoryStore is the single-process fallback used when Redis is not configured.
func NewMemoryStore(ttl time.Duration, keep int) Store {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &memoryStore{ttl: ttl, keep: keep, now: time.Now, data: map[string]*memoryEntry{}}
}

func (s *memoryStore) Recent(_ context.Context, sessionID string, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(sessionID)
	if e == nil || n <= 0 {
		return nil, nil
	}
	if n > len(e.fps) {
		n = len(e.fps)
	}
	return append([]string(nil), e.fps[:n]...), nil
}

func (s *memoryStore) Push(_ context.Context, sessionID, fp string) error {
	if fp == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(sessionID)
	if e == nil {
		e = &memoryEntry{}
		s.data[sessionID] = e
	}
	e.fps = append([]string{fp}, e.fps...)
	if len(e.fps) > s.keep {
		e.fps = e.fps[:s.keep]
	}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	return nil
}

// live returns the entry for sessionID, dropping it when expired. Caller holds mu.
func (s *memoryStore) live(sessionID string) *memoryEntry {
	e, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.data, sessionID)
		return nil
	}
	return e
}
