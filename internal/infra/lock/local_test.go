package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	token, ok, err := l.Lock(ctx, "booking:user:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Lock(ctx, "booking:user:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Другой пользователь не блокируется
	_, ok, _ = l.Lock(ctx, "booking:user:2", time.Minute)
	assert.True(t, ok)

	require.NoError(t, l.Unlock(ctx, "booking:user:1", token))
	_, ok, _ = l.Lock(ctx, "booking:user:1", time.Minute)
	assert.True(t, ok)
}

func TestLocalLock_ForeignTokenDoesNotUnlock(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	_, ok, _ := l.Lock(ctx, "k", time.Minute)
	require.True(t, ok)

	require.NoError(t, l.Unlock(ctx, "k", "someone-else"))

	_, ok, _ = l.Lock(ctx, "k", time.Minute)
	assert.False(t, ok)
}

func TestLocalLock_Expires(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, ok, _ := l.Lock(ctx, "k", 10*time.Second)
	require.True(t, ok)

	now = now.Add(11 * time.Second)
	_, ok, _ = l.Lock(ctx, "k", 10*time.Second)
	assert.True(t, ok)
}

func TestLocalLock_Concurrent(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	var acquired int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := l.Lock(ctx, "k", time.Minute); ok {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired)
}
