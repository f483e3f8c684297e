package task

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool 执行到期任务的协程池
type WorkerPool struct {
	size   int
	queue  chan *Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewWorkerPool 创建协程池，size <= 0 时使用 10
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		size:   size,
		queue:  make(chan *Task, size*2),
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default().With("component", "TaskWorkerPool"),
	}
}

// Start 启动全部工作协程
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.run(i)
	}
	wp.logger.Info("工作协程池已启动", "size", wp.size)
}

func (wp *WorkerPool) run(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case t := <-wp.queue:
			wp.execute(id, t)
		}
	}
}

// execute 执行单个任务，panic 不影响其他任务
func (wp *WorkerPool) execute(workerID int, t *Task) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("任务执行 panic",
				"workerID", workerID,
				"taskID", t.ID,
				"target", t.Target,
				"panic", r)
		}
	}()

	if err := t.Execute(wp.ctx); err != nil {
		wp.logger.Warn("任务执行失败",
			"workerID", workerID,
			"taskID", t.ID,
			"target", t.Target,
			"error", err)
	}
}

// Submit 提交任务，队列满时阻塞直到有空位或协程池关闭
func (wp *WorkerPool) Submit(t *Task) {
	select {
	case wp.queue <- t:
		return
	default:
	}

	wp.logger.Warn("任务队列已满，等待空位", "taskID", t.ID)
	select {
	case wp.queue <- t:
	case <-wp.ctx.Done():
		wp.logger.Warn("协程池已关闭，丢弃任务", "taskID", t.ID)
	}
}

// Stop 停止协程池，队列中未执行的任务被丢弃
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
	wp.logger.Info("工作协程池已停止")
}
