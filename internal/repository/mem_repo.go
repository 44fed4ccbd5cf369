package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultMemCapacity 内存运行历史默认保留条数
const DefaultMemCapacity = 1000

// MemRunRepo RunRepository 的内存实现。
// 未配置 Postgres 时使用，只保留最近 capacity 条记录，随进程消亡。
type MemRunRepo struct {
	mu       sync.RWMutex
	items    map[string]Run // key: run_id
	order    []string       // 按插入顺序的 run_id，用于淘汰最旧记录
	capacity int
}

func NewMemRunRepo(capacity int) *MemRunRepo {
	if capacity <= 0 {
		capacity = DefaultMemCapacity
	}
	return &MemRunRepo{
		items:    map[string]Run{},
		capacity: capacity,
	}
}

func (r *MemRunRepo) UpsertRun(_ context.Context, run Run) error {
	if run.RunID == "" {
		return errors.New("run_id 不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.items[run.RunID]; ok {
		run.CreatedAt = existing.CreatedAt
	} else {
		run.CreatedAt = now
		r.order = append(r.order, run.RunID)
		// 超出容量时淘汰最旧的记录
		for len(r.order) > r.capacity {
			oldest := r.order[0]
			r.order = r.order[1:]
			delete(r.items, oldest)
		}
	}
	run.UpdatedAt = now
	r.items[run.RunID] = run
	return nil
}

func (r *MemRunRepo) UpdateRunStatus(_ context.Context, runID, status, errMsg string, result json.RawMessage, durationMs *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.items[runID]
	if !ok {
		return errors.New("运行记录不存在")
	}

	now := time.Now()
	run.Status = status
	run.Error = errMsg
	run.Result = result
	run.DurationMs = durationMs
	if status == "success" || status == "fail" {
		run.FinishedAt = &now
	}
	run.UpdatedAt = now
	r.items[runID] = run
	return nil
}

func (r *MemRunRepo) GetRun(_ context.Context, runID string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.items[runID]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (r *MemRunRepo) ListRuns(_ context.Context, f ListRunsFilter) ([]Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Run
	for _, run := range r.items {
		if f.Tool != "" && run.Tool != f.Tool {
			continue
		}
		if f.ProjectID != "" && run.ProjectID != f.ProjectID {
			continue
		}
		if f.Device != "" && run.Device != f.Device {
			continue
		}
		if f.Status != "" && run.Status != f.Status {
			continue
		}
		out = append(out, run)
	}

	// 按创建时间倒序，与 Postgres 实现保持一致
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}
