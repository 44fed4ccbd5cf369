// Package toolbox 汇集对外暴露的工具（构建 / 测试 / 设备管理），
// 并把每次调用通过准入队列与设备锁组合执行：
//
//   - 队列层：同一 project_id 的调用串行，不同项目可并发（受全局容量约束）
//   - 锁层：指定了设备的调用在执行期间独占该设备，跨进程生效
//
// 两层正交：两个不同项目可以并发构建，但目标同一台设备时仍会在锁上串行。
package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/devicelock"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/logger"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/metrics"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/model"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/repository"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/taskqueue"
)

// Invocation 一次工具调用，是队列任务的 payload
type Invocation struct {
	RunID     string          `json:"run_id"`
	Tool      string          `json:"tool"`
	ProjectID string          `json:"project_id,omitempty"` // 队列分组键，空表示不分组
	Device    string          `json:"device,omitempty"`     // 非空时执行期间持有该设备的锁
	Args      json.RawMessage `json:"args,omitempty"`
}

// Outcome 工具执行结果
type Outcome struct {
	RunID   string `json:"run_id"`
	Summary string `json:"summary,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// Handler 单个工具的执行函数
type Handler func(ctx context.Context, inv Invocation) (Outcome, error)

// Config Runner 构造参数
type Config struct {
	// Capacity 队列全局并发上限，必须 >= 1
	Capacity int
	// Devices 设备清单
	Devices *device.Store
	// Runs 运行历史仓储
	Runs repository.RunRepository
	// LockOpts 设备锁参数
	LockOpts devicelock.Options
}

// Runner 工具执行器：注册工具、接收调用、驱动队列与锁
type Runner struct {
	queue    *taskqueue.Queue[Invocation, Outcome]
	devices  *device.Store
	runs     repository.RunRepository
	lockOpts devicelock.Options

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRunner 创建 Runner。Capacity < 1 是配置错误，构造即失败。
func NewRunner(cfg Config) (*Runner, error) {
	q, err := taskqueue.New[Invocation, Outcome](cfg.Capacity)
	if err != nil {
		return nil, err
	}
	if cfg.Devices == nil {
		cfg.Devices = device.NewStore()
	}
	if cfg.Runs == nil {
		cfg.Runs = repository.NewMemRunRepo(0)
	}
	return &Runner{
		queue:    q,
		devices:  cfg.Devices,
		runs:     cfg.Runs,
		lockOpts: cfg.LockOpts,
		handlers: map[string]Handler{},
	}, nil
}

// Register 注册一个工具
func (r *Runner) Register(name string, h Handler) {
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
}

// Handler 返回已注册的工具
func (r *Runner) Handler(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Queue 暴露队列用于观测（深度 / 运行数 / 分组快照）
func (r *Runner) Queue() *taskqueue.Queue[Invocation, Outcome] {
	return r.queue
}

// Devices 暴露设备清单
func (r *Runner) Devices() *device.Store {
	return r.devices
}

// Runs 暴露运行历史仓储
func (r *Runner) Runs() repository.RunRepository {
	return r.runs
}

// Submit 提交一次工具调用。
// 只有“工具未注册”会同步失败；其余所有失败都通过返回的 Future 传递。
// projectID 为空表示不参与项目互斥；deviceKey 为空表示不需要设备锁。
func (r *Runner) Submit(tool, projectID, deviceKey string, args json.RawMessage) (string, *taskqueue.Future[Outcome], error) {
	handler, ok := r.Handler(tool)
	if !ok {
		return "", nil, fmt.Errorf("toolbox: 未注册的工具 %q", tool)
	}

	runID := uuid.NewString()
	inv := Invocation{
		RunID:     runID,
		Tool:      tool,
		ProjectID: projectID,
		Device:    deviceKey,
		Args:      args,
	}

	_ = r.runs.UpsertRun(context.Background(), repository.Run{
		RunID:     runID,
		Tool:      tool,
		ProjectID: projectID,
		Device:    deviceKey,
		Args:      args,
		Status:    string(model.RunStatusPending),
	})

	future := r.queue.Enqueue(inv, r.execute(handler), projectID)
	metrics.RecordQueueSnapshot(r.queue.QueueDepth(), r.queue.RunningCount())
	return runID, future, nil
}

// Invoke 提交并等待完成，MCP / HTTP 入口的便捷封装
func (r *Runner) Invoke(ctx context.Context, tool, projectID, deviceKey string, args json.RawMessage) (Outcome, error) {
	_, future, err := r.Submit(tool, projectID, deviceKey, args)
	if err != nil {
		return Outcome{}, err
	}
	return future.Wait(ctx)
}

// execute 把工具 handler 包装成队列执行器：
// 更新运行状态、按需持锁、记录指标与历史。
func (r *Runner) execute(handler Handler) taskqueue.Executor[Invocation, Outcome] {
	return func(ctx context.Context, inv Invocation) (Outcome, error) {
		started := time.Now()
		log := logger.WithRunID(inv.RunID).With().Str("tool", inv.Tool).Logger()

		_ = r.runs.UpsertRun(ctx, repository.Run{
			RunID:     inv.RunID,
			Tool:      inv.Tool,
			ProjectID: inv.ProjectID,
			Device:    inv.Device,
			Args:      inv.Args,
			Status:    string(model.RunStatusRunning),
			StartedAt: &started,
		})
		metrics.RecordQueueSnapshot(r.queue.QueueDepth(), r.queue.RunningCount())

		var out Outcome
		var err error
		if inv.Device != "" {
			lockStart := time.Now()
			lockErr := devicelock.WithLock(ctx, inv.Device, r.lockOpts, func(ctx context.Context) error {
				metrics.RecordLockWait(inv.Device, time.Since(lockStart).Seconds())
				out, err = handler(ctx, inv)
				return nil
			})
			if lockErr != nil {
				var timeoutErr *devicelock.TimeoutError
				if errors.As(lockErr, &timeoutErr) {
					metrics.RecordLockTimeout(inv.Device)
				}
				err = lockErr
			}
		} else {
			out, err = handler(ctx, inv)
		}

		out.RunID = inv.RunID
		duration := time.Since(started)
		durationMs := int(duration.Milliseconds())

		status := model.RunStatusSuccess
		errMsg := ""
		if err != nil {
			status = model.RunStatusFail
			errMsg = err.Error()
		}

		var resultJSON json.RawMessage
		if encoded, encErr := sonic.Marshal(out); encErr == nil {
			resultJSON = encoded
		}
		_ = r.runs.UpdateRunStatus(ctx, inv.RunID, string(status), errMsg, resultJSON, &durationMs)

		metrics.RecordToolRun(inv.Tool, string(status), duration.Seconds())
		metrics.RecordQueueSnapshot(r.queue.QueueDepth(), r.queue.RunningCount())

		if err != nil {
			log.Warn().Err(err).Dur("duration(ms)", duration).Msg("工具执行失败")
		} else {
			log.Info().Dur("duration(ms)", duration).Msg("工具执行完成")
		}
		return out, err
	}
}

// decodeArgs 用 sonic 解析工具参数
func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var args T
	if len(raw) == 0 {
		return args, nil
	}
	if err := sonic.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("toolbox: 解析参数失败: %w", err)
	}
	return args, nil
}
