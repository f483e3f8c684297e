package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
	StatusRunning      = "running"
	StatusStopped      = "stopped"
)

// Status 健康状态
type Status struct {
	NATS      string         `json:"nats"`
	Redis     string         `json:"redis"`
	Database  string         `json:"database"`
	Scheduler string         `json:"scheduler"`
	Games     int            `json:"games"`
	Timer     map[string]any `json:"timer,omitempty"`
}

// Healthy 所有启用的依赖都可用
func (s *Status) Healthy() bool {
	return s.NATS != StatusDisconnected &&
		s.Redis != StatusDisconnected &&
		s.Database != StatusDisconnected &&
		s.Scheduler != StatusStopped
}

// Scheduler 回合计时调度器
type Scheduler interface {
	IsRunning() bool
	Stats() map[string]any
}

// Checker 健康检查器，未启用的依赖传 nil
type Checker struct {
	nc          *nats.Conn
	redisClient *redis.Client
	db          *pgxpool.Pool
	scheduler   Scheduler
	games       func() int
}

// NewChecker 创建健康检查器
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool, scheduler Scheduler, games func() int) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		db:          db,
		scheduler:   scheduler,
		games:       games,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		NATS:      StatusDisabled,
		Redis:     StatusDisabled,
		Database:  StatusDisabled,
		Scheduler: StatusDisabled,
	}

	if h.nc != nil {
		status.NATS = StatusDisconnected
		if h.nc.IsConnected() {
			status.NATS = StatusConnected
		}
	}

	if h.redisClient != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
		defer redisCancel()

		status.Redis = StatusDisconnected
		if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
			status.Redis = StatusConnected
		}
	}

	if h.db != nil {
		dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
		defer dbCancel()

		status.Database = StatusDisconnected
		if err := h.db.Ping(dbCtx); err == nil {
			status.Database = StatusConnected
		}
	}

	if h.scheduler != nil {
		status.Scheduler = StatusStopped
		if h.scheduler.IsRunning() {
			status.Scheduler = StatusRunning
		}
		status.Timer = h.scheduler.Stats()
	}

	if h.games != nil {
		status.Games = h.games()
	}

	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
