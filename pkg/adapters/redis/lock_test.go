package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	// Setup miniredis
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()
	key := "session-1"

	// 1. Acquire Lock
	unlock, err := locker.Lock(ctx, key, 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, unlock)

	// Verify key set in redis
	assert.True(t, mr.Exists("test:lock:session-1"), "Lock key should be set in Redis")

	// 2. Release Lock
	err = unlock(ctx)
	assert.NoError(t, err)

	// Verify key removed
	assert.False(t, mr.Exists("test:lock:session-1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:") // Same prefix -> contention
	ctx := context.Background()
	key := "shared-session"

	// 1. Client 1 acquires lock
	unlock1, err := locker1.Lock(ctx, key, 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, unlock1)

	// 2. Client 2 blocks until client 1 releases
	acquired := make(chan struct{})
	go func() {
		unlock2, err := locker2.Lock(ctx, key, 5*time.Second)
		if err == nil {
			_ = unlock2(ctx)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Client 2 should not acquire the lock while client 1 holds it")
	case <-time.After(250 * time.Millisecond):
		// Still blocked, as expected.
	}

	// 3. Release lets the waiter through
	err = unlock1(ctx)
	require.NoError(t, err)

	select {
	case <-acquired:
		// Acquired after release.
	case <-time.After(2 * time.Second):
		t.Fatal("Client 2 should acquire the lock after client 1 released it")
	}
}

func TestRedisLocker_LockRespectsContext(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker := redis.NewLocker(client, "test:")

	unlock, err := locker.Lock(context.Background(), "held", 30*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "held", 30*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_UnlockIsFenced(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "fenced", time.Minute)
	require.NoError(t, err)

	// Simulate the lock expiring and another holder taking over.
	require.NoError(t, mr.Set("test:lock:fenced", "someone-else"))

	// The stale release must not delete the new holder's lock.
	err = unlock(ctx)
	assert.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:fenced"), "A stale unlock must not release another holder's lock")

	val, err := mr.Get("test:lock:fenced")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}
