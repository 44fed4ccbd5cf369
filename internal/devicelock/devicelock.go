// Package devicelock 提供以设备标识（serial / UDID）为键的互斥锁。
//
// 两个实现：
//   - DirLock：基于文件系统原子创建目录的跨进程锁，CLI 脚本与常驻服务
//     之间共享同一台模拟器时使用。陈旧锁（持有者进程已退出）由后续
//     等待者自动回收。
//   - Registry：进程内的简化实现，所有调用方都在同一进程时使用。
//
// 两者的正确性都不依赖额外的应用层锁：DirLock 依赖操作系统
// “创建目录、已存在则失败”的原子性，Registry 依赖进程内互斥量。
package devicelock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	// DefaultTimeout 默认获取锁的超时时间
	DefaultTimeout = 60 * time.Second

	// DefaultPollInterval 默认轮询间隔
	DefaultPollInterval = 250 * time.Millisecond

	// pidFileName 锁目录中记录持有者进程 PID 的文件名
	pidFileName = "pid"
)

// Options 获取锁的参数
type Options struct {
	// Timeout 超过该时长仍未获取到锁则返回 *TimeoutError，0 使用默认值
	Timeout time.Duration

	// PollInterval 持有者存活时的重试间隔，0 使用默认值
	PollInterval time.Duration

	// BaseDir 锁目录的父目录，空则使用 os.TempDir()/pistachio-locks
	BaseDir string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.BaseDir == "" {
		o.BaseDir = filepath.Join(os.TempDir(), "pistachio-locks")
	}
	return o
}

// Lock 已持有的跨进程设备锁
type Lock struct {
	key string
	dir string
}

// Key 返回锁对应的设备标识
func (l *Lock) Key() string {
	return l.key
}

// Release 释放锁：无条件删除锁目录，可重复调用。
// 注意：删除前不校验当前持有者身份，见包文档中关于陈旧锁回收的说明。
func (l *Lock) Release() error {
	if err := os.RemoveAll(l.dir); err != nil {
		return fmt.Errorf("devicelock: 删除锁目录失败: %w", err)
	}
	return nil
}

// Acquire 获取 deviceKey 对应的跨进程锁。
//
// 协议：
//  1. 原子创建锁目录，成功则写入自身 PID 并返回。
//  2. 目录已存在时读取持有者 PID：PID 缺失、不可解析或进程已不存在，
//     视为陈旧锁，强制删除后立即重试（下一次原子创建会正确地输掉
//     与其他等待者的竞争）；持有者存活则等待 PollInterval 后重试。
//  3. 超过 Timeout 仍未成功，返回 *TimeoutError。
//
// 除“目录已存在”之外的任何 I/O 错误（权限不足、磁盘满等）立即返回，
// 不做重试。
func Acquire(ctx context.Context, deviceKey string, opts Options) (*Lock, error) {
	if strings.TrimSpace(deviceKey) == "" {
		return nil, errors.New("devicelock: deviceKey 不能为空")
	}
	opts = opts.withDefaults()

	if err := os.MkdirAll(opts.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("devicelock: 创建锁根目录失败: %w", err)
	}

	dir := filepath.Join(opts.BaseDir, sanitizeKey(deviceKey)+".lock")
	deadline := time.Now().Add(opts.Timeout)

	for {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			// 拿到锁，立刻记录持有者身份供后续陈旧检测使用
			pidPath := filepath.Join(dir, pidFileName)
			if werr := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); werr != nil {
				_ = os.RemoveAll(dir)
				return nil, fmt.Errorf("devicelock: 写入持有者 PID 失败: %w", werr)
			}
			return &Lock{key: deviceKey, dir: dir}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("devicelock: 创建锁目录失败: %w", err)
		}

		// 目录已存在：检查持有者是否还活着
		if ownerDead(dir) {
			if rerr := os.RemoveAll(dir); rerr != nil {
				return nil, fmt.Errorf("devicelock: 回收陈旧锁失败: %w", rerr)
			}
			// 陈旧锁回收后立即重试，无需退避
			continue
		}

		if time.Now().After(deadline) {
			return nil, &TimeoutError{Key: deviceKey, Timeout: opts.Timeout}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

// WithLock 获取锁、执行 fn、并在任何退出路径上释放锁
func WithLock(ctx context.Context, deviceKey string, opts Options, fn func(ctx context.Context) error) error {
	lock, err := Acquire(ctx, deviceKey, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()
	return fn(ctx)
}

// ownerDead 判断锁目录记录的持有者进程是否已不存在。
// PID 文件缺失或内容不可解析也视为持有者已死（锁可回收）。
func ownerDead(dir string) bool {
	raw, err := os.ReadFile(filepath.Join(dir, pidFileName))
	if err != nil {
		return true
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return true
	}

	alive, err := process.PidExists(int32(pid))
	if err != nil {
		// 探测失败时保守处理，当作持有者仍然存活
		return false
	}
	return !alive
}

// sanitizeKey 把设备标识转成安全的目录名。
// adb 的 TCP 序列号（如 192.168.1.5:5555）包含目录名里不安全的字符。
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
