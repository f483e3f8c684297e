package task

import (
	"fmt"
	"sync"
)

// SlotCount 时间轮槽位数量，也是单个任务的最大延迟刻度
const SlotCount = 60

// TimeWheel 单层时间轮
// index 记录每个任务所在的槽位，删除和替换不依赖当前指针位置
type TimeWheel struct {
	mu      sync.Mutex
	slots   [SlotCount]*Slot
	current int
	index   map[string]int
}

// NewTimeWheel 创建时间轮
func NewTimeWheel() *TimeWheel {
	tw := &TimeWheel{index: make(map[string]int)}
	for i := range tw.slots {
		tw.slots[i] = NewSlot()
	}
	return tw
}

// Add 添加任务，已存在的同 ID 任务被替换
func (tw *TimeWheel) Add(task *Task) error {
	if task.Delay < 1 || task.Delay > SlotCount {
		return fmt.Errorf("task %s: delay %d out of range [1, %d]", task.ID, task.Delay, SlotCount)
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if old, ok := tw.index[task.ID]; ok {
		tw.slots[old].Delete(task.ID)
	}
	target := (tw.current + task.Delay) % SlotCount
	tw.slots[target].Put(task)
	tw.index[task.ID] = target
	return nil
}

// Remove 删除任务
func (tw *TimeWheel) Remove(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	slot, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.index, taskID)
	return tw.slots[slot].Delete(taskID)
}

// Tick 前进一格，返回到期的任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.current = (tw.current + 1) % SlotCount
	due := tw.slots[tw.current].Drain()
	for _, t := range due {
		delete(tw.index, t.ID)
	}
	return due
}

// Current 当前槽位
func (tw *TimeWheel) Current() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.current
}

// Len 全部待执行任务数
func (tw *TimeWheel) Len() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return len(tw.index)
}
