package llm_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/llm/llmtest"
)

func TestPoolAcquireHonorsExclusion(t *testing.T) {
	a, b, c := llmtest.Text("a"), llmtest.Text("b"), llmtest.Text("c")
	pool := llm.NewPool(a, b, c)
	require.Equal(t, 3, pool.Size())

	exclude := map[int]bool{}
	seen := map[int]bool{}
	for i := 0; i < pool.Size(); i++ {
		client, idx, err := pool.Acquire(exclude)
		require.NoError(t, err)
		require.NotNil(t, client)
		require.False(t, seen[idx], "index %d handed out twice", idx)
		seen[idx] = true
		exclude[idx] = true
	}

	_, idx, err := pool.Acquire(exclude)
	require.ErrorIs(t, err, llm.ErrPoolExhausted)
	require.Equal(t, -1, idx)

	// A fresh request is unaffected by another request's exclusions.
	_, _, err = pool.Acquire(nil)
	require.NoError(t, err)
}

func TestPoolEmptyIsNotConfigured(t *testing.T) {
	pool := llm.NewPool()
	require.Equal(t, 0, pool.Size())
	_, _, err := pool.Acquire(nil)
	require.True(t, errors.Is(err, llm.ErrNotConfigured))

	var nilPool *llm.Pool
	require.Equal(t, 0, nilPool.Size())
}

func TestPoolConcurrentAcquire(t *testing.T) {
	pool := llm.NewPool(llmtest.Text("a"), llmtest.Text("b"))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exclude := map[int]bool{}
			for j := 0; j < pool.Size(); j++ {
				_, idx, err := pool.Acquire(exclude)
				if err != nil {
					t.Errorf("Acquire: %v", err)
					return
				}
				exclude[idx] = true
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 2, pool.Size())
}
