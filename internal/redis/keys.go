package redis

import "time"

const (
	// GameLockKeyPrefix 游戏锁 Key 前缀
	GameLockKeyPrefix = "rummikub:game:lock:"

	// DefaultLockTTL 锁的默认过期时间，持有者崩溃时自动释放
	DefaultLockTTL = 5 * time.Second
)

// BuildGameLockKey 构建游戏锁 Key
// Key: rummikub:game:lock:{gameId}
func BuildGameLockKey(gameID string) string {
	return GameLockKeyPrefix + gameID
}
