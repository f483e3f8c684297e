package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockBusy 锁被其他实例持有
	ErrLockBusy = errors.New("game lock is held by another operation")
	// ErrLockLost 释放时锁已过期或被他人持有
	ErrLockLost = errors.New("game lock expired before release")
)

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockConfig 分布式锁配置
type LockConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// GameLocker 基于 SetNX 的游戏锁，多个服务实例共享同一个数据库时用它串行化同一局游戏
type GameLocker struct {
	client *redis.Client
	cfg    LockConfig
	logger *slog.Logger
}

// NewGameLocker 创建游戏锁
func NewGameLocker(client *redis.Client, cfg LockConfig) *GameLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultLockTTL
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	return &GameLocker{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "GameLocker"),
	}
}

// Acquire 获取锁，返回释放函数
// 锁被占用时按配置重试，仍失败返回 ErrLockBusy
func (l *GameLocker) Acquire(ctx context.Context, gameID string) (func(context.Context) error, error) {
	key := BuildGameLockKey(gameID)
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			l.logger.Error("Failed to acquire game lock", "error", err, "gameId", gameID)
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if attempt >= l.cfg.RetryCount {
			l.logger.Warn("Game is locked by another operation", "gameId", gameID)
			return nil, ErrLockBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.cfg.RetryInterval):
		}
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if n == 0 {
			l.logger.Warn("Game lock expired before release", "gameId", gameID)
			return ErrLockLost
		}
		return nil
	}
	return release, nil
}
