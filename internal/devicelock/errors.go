package devicelock

import (
	"fmt"
	"time"
)

// TimeoutError 在配置的超时时间内未能获取到锁。
// 这是 Acquire 唯一面向调用方的失败类型，是否重试由上层决定。
type TimeoutError struct {
	Key     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("devicelock: 获取设备 %q 的锁超时（%s）", e.Key, e.Timeout)
}
