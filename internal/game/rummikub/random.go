package rummikub

import (
	"math/rand"
	"sync"
	"time"
)

// Random 随机源，洗牌和摸牌都经过它，测试可以用固定种子重放
type Random interface {
	// Intn 返回 [0, n) 的随机数
	Intn(n int) int
	// Perm 返回 [0, n) 的随机排列
	Perm(n int) []int
}

// lockedRandom 并发安全的随机源
type lockedRandom struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRandom 创建随机源，seed 为 0 时使用当前时间
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRandom{rand: rand.New(rand.NewSource(seed))}
}

func (r *lockedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm 基于 Fisher-Yates 的无偏排列
func (r *lockedRandom) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}
