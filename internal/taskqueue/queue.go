// Package taskqueue 提供一个有界并发、按项目互斥的任务准入队列。
//
// 约定：
//   - 全局并发数不超过 capacity（构造时指定）
//   - 同一 groupKey（项目）同时最多只有一个任务在执行
//   - 无 groupKey 的任务以及不同 groupKey 的任务可并发执行
//   - 准入完全由 Enqueue / 任务完成事件驱动，空闲时不占用任何 goroutine 或定时器
package taskqueue

import (
	"context"
	"fmt"
	"sync"
)

// Executor 任务执行函数。队列不会重试、不会检查其内部行为，只驱动其生命周期。
type Executor[P, R any] func(ctx context.Context, payload P) (R, error)

// task 队列内部的任务记录
type task[P, R any] struct {
	payload  P
	exec     Executor[P, R]
	groupKey string // 空字符串表示不分组，不参与互斥
	future   *Future[R]
}

// Queue 有界并发任务队列。
// 所有内部状态仅在持有 mu 时修改，对外方法均并发安全。
type Queue[P, R any] struct {
	mu            sync.Mutex
	capacity      int
	running       int
	runningGroups map[string]int // groupKey -> 正在运行的任务数（不保留 0 值条目）
	pending       []*task[P, R]
}

// New 创建队列。capacity 必须 >= 1，否则返回配置错误。
func New[P, R any](capacity int) (*Queue[P, R], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("taskqueue: capacity 必须 >= 1，当前为 %d", capacity)
	}
	return &Queue[P, R]{
		capacity:      capacity,
		runningGroups: map[string]int{},
	}, nil
}

// Enqueue 提交任务。永远不会同步失败；所有失败通过返回的 Future 传递。
// groupKey 为空表示不分组。任务一旦被准入就不会重新排队，结果只交付一次。
func (q *Queue[P, R]) Enqueue(payload P, exec Executor[P, R], groupKey string) *Future[R] {
	t := &task[P, R]{
		payload:  payload,
		exec:     exec,
		groupKey: groupKey,
		future:   newFuture[R](),
	}

	q.mu.Lock()
	q.pending = append(q.pending, t)
	q.dispatchLocked()
	q.mu.Unlock()

	return t.future
}

// QueueDepth 返回尚未被准入的任务数
func (q *Queue[P, R]) QueueDepth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// RunningCount 返回正在执行的任务数
func (q *Queue[P, R]) RunningCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Capacity 返回配置的并发上限
func (q *Queue[P, R]) Capacity() int {
	return q.capacity
}

// RunningByGroup 返回各分组正在运行的任务数快照（副本，非实时视图）
func (q *Queue[P, R]) RunningByGroup() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[string]int, len(q.runningGroups))
	for k, v := range q.runningGroups {
		out[k] = v
	}
	return out
}

// dispatchLocked 准入循环，调用方必须持有 mu。
// 按 FIFO 顺序扫描 pending，选出第一个“不分组或其分组当前空闲”的任务准入；
// 被阻塞的分组任务会被跳过（刻意的非严格 FIFO），全部被阻塞则停止扫描，
// 等待下一次完成事件重新触发。
func (q *Queue[P, R]) dispatchLocked() {
	for q.running < q.capacity && len(q.pending) > 0 {
		idx := -1
		for i, t := range q.pending {
			if t.groupKey == "" || q.runningGroups[t.groupKey] == 0 {
				idx = i
				break
			}
		}
		if idx < 0 {
			// 所有待处理任务的分组都在忙，不自旋
			return
		}

		t := q.pending[idx]
		q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
		q.running++
		if t.groupKey != "" {
			q.runningGroups[t.groupKey]++
		}

		go q.run(t)
	}
}

// run 执行单个任务并在完成后释放容量、重新触发准入。
// 执行器的失败是任务级别的，不影响其他任务和队列本身。
func (q *Queue[P, R]) run(t *task[P, R]) {
	result, err := q.invoke(t)

	q.mu.Lock()
	q.running--
	if t.groupKey != "" {
		q.runningGroups[t.groupKey]--
		if q.runningGroups[t.groupKey] <= 0 {
			delete(q.runningGroups, t.groupKey)
		}
	}
	q.dispatchLocked()
	q.mu.Unlock()

	// 计数器更新完毕后再交付结果，保证等待方观察到的状态一致
	t.future.settle(result, err)
}

// invoke 调用执行器并把 panic 转换为任务失败，避免单个任务拖垮整个进程
func (q *Queue[P, R]) invoke(t *task[P, R]) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("taskqueue: 执行器 panic: %v", r)
		}
	}()
	return t.exec(context.Background(), t.payload)
}
