package task

import "sync"

// Slot 时间轮槽位
type Slot struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewSlot 创建槽位
func NewSlot() *Slot {
	return &Slot{tasks: make(map[string]*Task)}
}

// Put 放入任务，同 ID 覆盖
func (s *Slot) Put(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

// Delete 删除任务
func (s *Slot) Delete(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return false
	}
	delete(s.tasks, taskID)
	return true
}

// Drain 取出全部任务并清空
func (s *Slot) Drain() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil
	}
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[string]*Task)
	return tasks
}

// Len 任务数量
func (s *Slot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
