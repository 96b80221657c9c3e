package locking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, ttl, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return NewRedisLocker(client, ttl, wait), m
}

func TestBoardKey(t *testing.T) {
	assert.Equal(t, "board:b1", BoardKey("b1"))
}

func TestLocalLockerExclusive(t *testing.T) {
	l := NewLocalLocker(time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "board:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, l.held(), "entries are dropped once released")
}

func TestLocalLockerTimesOut(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(ctx, "board:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	other, err := l.Acquire(ctx, "board:2")
	require.NoError(t, err, "different keys do not contend")
	other()
}

func TestLocalLockerReleaseTwice(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()
	release()

	again, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestLocalLockerContextCancelled(t *testing.T) {
	l := NewLocalLocker(time.Second)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	l, m := newRedisLocker(t, time.Second, 50*time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err)
	assert.True(t, m.Exists("taskboard:lock:board:1"))

	_, err = l.Acquire(ctx, "board:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	assert.False(t, m.Exists("taskboard:lock:board:1"))

	again, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err)
	again()
}

func TestRedisLockerLeaseExpires(t *testing.T) {
	l, m := newRedisLocker(t, 100*time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err)

	m.FastForward(200 * time.Millisecond)

	fresh, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err, "expired lease can be taken over")

	// the stale holder must not delete the new holder's lease
	stale()
	assert.True(t, m.Exists("taskboard:lock:board:1"))

	fresh()
	assert.False(t, m.Exists("taskboard:lock:board:1"))
}

func TestRedisLockerWaitsForRelease(t *testing.T) {
	l, _ := newRedisLocker(t, time.Second, time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()

	second, err := l.Acquire(ctx, "board:1")
	require.NoError(t, err)
	second()
}

func TestRedisLockerUnavailable(t *testing.T) {
	l, m := newRedisLocker(t, time.Second, 50*time.Millisecond)
	m.Close()

	_, err := l.Acquire(context.Background(), "board:1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}
