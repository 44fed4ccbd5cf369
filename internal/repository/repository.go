package repository

import (
	"context"
	"encoding/json"
	"time"
)

// Run 表示一次工具运行记录
type Run struct {
	RunID      string          `json:"run_id"`
	Tool       string          `json:"tool"`
	ProjectID  string          `json:"project_id,omitempty"` // 队列分组键，可为空
	Device     string          `json:"device,omitempty"`     // 设备 serial / UDID，可为空
	Args       json.RawMessage `json:"args,omitempty"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	DurationMs *int            `json:"duration_ms,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ListRunsFilter 运行列表查询过滤条件
type ListRunsFilter struct {
	Tool      string
	ProjectID string
	Device    string
	Status    string
	Limit     int
	Offset    int
}

// RunRepository 运行历史仓储接口。
// 默认内存实现随进程消亡；配置了 POSTGRES_DSN 时切换为 Postgres 实现。
type RunRepository interface {
	// UpsertRun 创建或更新运行记录
	UpsertRun(ctx context.Context, run Run) error

	// UpdateRunStatus 更新运行状态与结果
	UpdateRunStatus(ctx context.Context, runID, status, errMsg string, result json.RawMessage, durationMs *int) error

	// GetRun 获取单条运行记录
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns 按过滤条件列出运行记录（按创建时间倒序）
	ListRuns(ctx context.Context, f ListRunsFilter) ([]Run, error)
}
