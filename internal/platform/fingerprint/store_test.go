package fingerprint

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreKeepsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 3)
	for _, fp := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Push(ctx, "s1", fp))
	}
	got, err := s.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"d", "c", "b"}, got)

	got, err = s.Recent(ctx, "s1", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"d"}, got)

	got, err = s.Recent(ctx, "other", 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore(time.Minute, 0).(*memoryStore)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ms.now = func() time.Time { return now }

	require.NoError(t, ms.Push(ctx, "s1", "x"))
	now = now.Add(2 * time.Minute)
	got, err := ms.Recent(ctx, "s1", 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	session := uuid.NewString()
	s := NewRedisStore(rdb, time.Minute, 2)
	t.Cleanup(func() { rdb.Del(ctx, redisKey(session)) })

	for _, fp := range []string{"a", "b", "c"} {
		require.NoError(t, s.Push(ctx, session, fp))
	}
	got, err := s.Recent(ctx, session, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, got)
}
