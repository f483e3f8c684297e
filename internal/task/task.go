package task

import (
	"context"
	"time"
)

// TaskFunc 任务执行函数，target 为任务作用的对象（例如游戏ID）
type TaskFunc func(ctx context.Context, target string, metadata map[string]any) error

// Task 延迟任务
// 同一个 ID 在时间轮中最多存在一份，重复添加会替换旧任务
type Task struct {
	ID        string         `json:"id"`
	Target    string         `json:"target"`
	Delay     int            `json:"delay"` // 延迟的刻度数，1 到 SlotCount
	Fn        TaskFunc       `json:"-"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewTask 创建任务
func NewTask(id, target string, delay int, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Target:    target,
		Delay:     delay,
		Fn:        fn,
		Metadata:  make(map[string]any),
		CreatedAt: time.Now(),
	}
}

// WithMetadata 添加元数据
func (t *Task) WithMetadata(key string, value any) *Task {
	t.Metadata[key] = value
	return t
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.Target, t.Metadata)
}
