package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNotRunning 调度器未运行
	ErrNotRunning = errors.New("scheduler is not running")
	// ErrTaskNotFound 任务不存在
	ErrTaskNotFound = errors.New("task not found")
)

// Config 调度器配置
type Config struct {
	TickInterval time.Duration `mapstructure:"tick_interval"` // 每一格的时长
	WorkerCount  int           `mapstructure:"worker_count"`
}

// Scheduler 基于时间轮的延迟任务调度器
type Scheduler struct {
	wheel    *TimeWheel
	workers  *WorkerPool
	interval time.Duration

	mu      sync.RWMutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	logger *slog.Logger
}

// NewScheduler 创建调度器，TickInterval 默认 1 秒
func NewScheduler(cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Scheduler{
		wheel:    NewTimeWheel(),
		workers:  NewWorkerPool(cfg.WorkerCount),
		interval: cfg.TickInterval,
		logger:   slog.Default().With("component", "TaskScheduler"),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stop = make(chan struct{})

	s.workers.Start()
	s.wg.Add(1)
	go s.tickLoop(s.stop)

	s.logger.Info("任务调度器已启动", "tickInterval", s.interval)
	return nil
}

func (s *Scheduler) tickLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, t := range s.wheel.Tick() {
				s.workers.Submit(t)
			}
		}
	}
}

// Stop 停止调度器，停止后不能再次启动
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.workers.Stop()
	s.logger.Info("任务调度器已停止", "pending", s.wheel.Len())
}

// AddTask 添加任务，同 ID 的等待中任务被替换
func (s *Scheduler) AddTask(t *Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return ErrNotRunning
	}
	if t == nil || t.ID == "" {
		return fmt.Errorf("task id is required")
	}

	s.logger.Debug("添加任务", "taskID", t.ID, "target", t.Target, "delay", t.Delay)
	return s.wheel.Add(t)
}

// RemoveTask 删除等待中的任务
func (s *Scheduler) RemoveTask(taskID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return ErrNotRunning
	}
	if !s.wheel.Remove(taskID) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}

// IsRunning 是否运行中
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// TickInterval 每一格的时长
func (s *Scheduler) TickInterval() time.Duration {
	return s.interval
}

// Stats 统计信息，用于健康检查
func (s *Scheduler) Stats() map[string]any {
	return map[string]any{
		"running":      s.IsRunning(),
		"currentSlot":  s.wheel.Current(),
		"pendingTasks": s.wheel.Len(),
		"workerCount":  s.workers.size,
	}
}
