package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/execx"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	pgPool *pgxpool.Pool
	runner *toolbox.Runner
}

// NewHealthChecker 创建健康检查器。pgPool 可为 nil（未配置 Postgres 时）。
func NewHealthChecker(pgPool *pgxpool.Pool, runner *toolbox.Runner) *HealthChecker {
	return &HealthChecker{
		pgPool: pgPool,
		runner: runner,
	}
}

// CheckResult 健康检查结果
type CheckResult struct {
	Status  string            `json:"status"` // "ok" or "error"
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// LivenessCheck 存活检查（快速返回，不检查依赖）
func (h *HealthChecker) LivenessCheck() CheckResult {
	return CheckResult{
		Status: "ok",
		Checks: map[string]string{
			"service": "running",
		},
	}
}

// ReadinessCheck 就绪检查（检查所有依赖）
func (h *HealthChecker) ReadinessCheck(ctx context.Context) CheckResult {
	result := CheckResult{
		Checks: make(map[string]string),
	}

	// 检查 PostgreSQL 连接
	if h.pgPool != nil {
		if err := h.checkPostgres(ctx); err != nil {
			result.Checks["postgres"] = "error: " + err.Error()
			result.Status = "error"
		} else {
			result.Checks["postgres"] = "ok"
		}
	}

	// 检查工具链是否可用（缺失只降级提示，不影响就绪，
	// iOS 工具链在 Linux 构建机上本来就不存在）
	if execx.LookPath("adb") {
		result.Checks["adb"] = "ok"
	} else {
		result.Checks["adb"] = "missing"
	}
	if execx.LookPath("xcrun") {
		result.Checks["xcrun"] = "ok"
	} else {
		result.Checks["xcrun"] = "missing"
	}

	// 队列快照
	if h.runner != nil {
		q := h.runner.Queue()
		result.Checks["queue"] = fmt.Sprintf("running=%d pending=%d capacity=%d",
			q.RunningCount(), q.QueueDepth(), q.Capacity())
	}

	if result.Status == "" {
		result.Status = "ok"
	}

	return result
}

// checkPostgres 检查 PostgreSQL 连接
func (h *HealthChecker) checkPostgres(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return h.pgPool.Ping(ctx)
}
