package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// ManagerConfig 游戏注册表配置
type ManagerConfig struct {
	EvictInterval time.Duration `mapstructure:"evict_interval"` // 淘汰检查间隔
	EvictTimeout  time.Duration `mapstructure:"evict_timeout"`  // 超过该时长未操作的游戏被淘汰
}

// Entry 单局游戏的注册项
// mu 串行化同一局游戏的所有操作；game 是最近一次提交的状态，只在持有 mu 时读写
type Entry struct {
	id         string
	mu         sync.Mutex
	game       *rummikub.Game
	removed    bool
	lastActive atomic.Int64
}

// ID 游戏ID
func (e *Entry) ID() string {
	return e.id
}

// Unlock 释放游戏锁
func (e *Entry) Unlock() {
	e.mu.Unlock()
}

// Cached 缓存的游戏状态，调用方必须持有锁
func (e *Entry) Cached() *rummikub.Game {
	return e.game
}

// Commit 提交新的游戏状态，调用方必须持有锁
func (e *Entry) Commit(game *rummikub.Game) {
	e.game = game
	e.touch()
}

// Invalidate 丢弃缓存，下次从仓库加载
func (e *Entry) Invalidate() {
	e.game = nil
}

// LastActive 最后活跃时间
func (e *Entry) LastActive() time.Time {
	return time.Unix(0, e.lastActive.Load())
}

func (e *Entry) touch() {
	e.lastActive.Store(time.Now().UnixNano())
}

// GameManager 游戏注册表
// 注册表本身由 sync.Map 保护，与每局游戏的锁相互独立
type GameManager struct {
	entries sync.Map // gameId -> *Entry

	evictTimeout time.Duration
	evictTicker  *time.Ticker
	stopChan     chan struct{}
	stopOnce     sync.Once

	logger *slog.Logger
}

// NewGameManager 创建游戏注册表并启动淘汰循环
func NewGameManager(cfg ManagerConfig) *GameManager {
	if cfg.EvictInterval <= 0 {
		cfg.EvictInterval = 60 * time.Second
	}
	if cfg.EvictTimeout <= 0 {
		cfg.EvictTimeout = 30 * time.Minute
	}

	m := &GameManager{
		evictTimeout: cfg.EvictTimeout,
		evictTicker:  time.NewTicker(cfg.EvictInterval),
		stopChan:     make(chan struct{}),
		logger:       slog.Default().With("component", "GameManager"),
	}

	go m.evictLoop()

	return m
}

// Lock 获取（必要时创建）游戏注册项并加锁，返回时调用方持有锁
func (m *GameManager) Lock(gameID string) *Entry {
	for {
		entry := m.getOrCreate(gameID)
		entry.mu.Lock()
		if !entry.removed {
			entry.touch()
			return entry
		}
		// 等锁期间被淘汰，重新获取新的注册项
		entry.mu.Unlock()
	}
}

func (m *GameManager) getOrCreate(gameID string) *Entry {
	if val, ok := m.entries.Load(gameID); ok {
		return val.(*Entry)
	}

	entry := &Entry{id: gameID}
	entry.touch()
	actual, _ := m.entries.LoadOrStore(gameID, entry)
	return actual.(*Entry)
}

// Get 获取注册项
func (m *GameManager) Get(gameID string) (*Entry, bool) {
	val, ok := m.entries.Load(gameID)
	if !ok {
		return nil, false
	}
	return val.(*Entry), true
}

// Remove 移除注册项，调用方必须持有该注册项的锁
func (m *GameManager) Remove(entry *Entry) {
	entry.removed = true
	entry.game = nil
	m.entries.CompareAndDelete(entry.id, entry)
	m.logger.Info("Removed game", "gameId", entry.id)
}

// Count 返回当前注册的游戏数
func (m *GameManager) Count() int {
	count := 0
	m.entries.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// evictLoop 淘汰循环
func (m *GameManager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictInactive()
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictInactive 淘汰不活跃的游戏，正在操作中的游戏跳过
func (m *GameManager) evictInactive() {
	now := time.Now()

	m.entries.Range(func(key, value any) bool {
		entry := value.(*Entry)
		if now.Sub(entry.LastActive()) <= m.evictTimeout {
			return true
		}
		if !entry.mu.TryLock() {
			return true
		}
		if now.Sub(entry.LastActive()) > m.evictTimeout {
			m.Remove(entry)
			m.logger.Info("Evicted inactive game", "gameId", entry.id)
		}
		entry.mu.Unlock()
		return true
	})
}

// Shutdown 停止淘汰循环，已提交的状态都已经写入仓库，不需要额外保存
func (m *GameManager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.evictTicker.Stop()
	})
	m.logger.Info("GameManager shutdown complete", "games", m.Count())
	return nil
}
