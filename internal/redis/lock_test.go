package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 注意：这些测试需要一个运行中的 Redis 实例，没有 Redis 时跳过
func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("跳过测试：无法连接 Redis: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestBuildGameLockKey(t *testing.T) {
	assert.Equal(t, "rummikub:game:lock:g1", BuildGameLockKey("g1"))
}

func TestGameLocker_AcquireRelease(t *testing.T) {
	client := getTestRedisClient(t)
	locker := NewGameLocker(client, LockConfig{TTL: time.Second})
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "g1")
	assert.ErrorIs(t, err, ErrLockBusy)

	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestGameLocker_ReleaseDoesNotDeleteOthersLock(t *testing.T) {
	client := getTestRedisClient(t)
	locker := NewGameLocker(client, LockConfig{TTL: 100 * time.Millisecond})
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)

	// 过期后被其他持有者获取
	time.Sleep(150 * time.Millisecond)
	other, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)

	assert.ErrorIs(t, release(ctx), ErrLockLost)
	assert.NoError(t, other(ctx))
}

func TestGameLocker_RetryUntilReleased(t *testing.T) {
	client := getTestRedisClient(t)
	locker := NewGameLocker(client, LockConfig{TTL: time.Second, RetryCount: 20, RetryInterval: 10 * time.Millisecond})
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		release(context.Background())
	}()

	second, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, second(ctx))
}
