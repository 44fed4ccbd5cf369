package model

// RunStatus 统一的工具运行状态枚举（用于 API/持久化/前端筛选）。
// 约定：
// - pending: 已入队（等待队列准入）
// - running: 已被准入，执行中
// - success: 成功
// - fail: 执行失败
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFail    RunStatus = "fail"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusSuccess, RunStatusFail:
		return true
	default:
		return false
	}
}
