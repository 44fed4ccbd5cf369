package devicelock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Registry 进程内的设备锁注册表。
// 所有调用方都在同一个进程（常驻服务场景）时，无需跨进程协议，
// 一张轮询的布尔表即可满足同样的互斥语义。
type Registry struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewRegistry 创建进程内锁注册表
func NewRegistry() *Registry {
	return &Registry{held: map[string]bool{}}
}

// MemLock Registry 发放的进程内锁
type MemLock struct {
	registry *Registry
	key      string
}

// Key 返回锁对应的设备标识
func (m *MemLock) Key() string {
	return m.key
}

// Release 释放锁，可重复调用
func (m *MemLock) Release() {
	m.registry.mu.Lock()
	delete(m.registry.held, m.key)
	m.registry.mu.Unlock()
}

// Acquire 获取 deviceKey 对应的进程内锁，语义与包级 Acquire 一致
func (r *Registry) Acquire(ctx context.Context, deviceKey string, opts Options) (*MemLock, error) {
	if strings.TrimSpace(deviceKey) == "" {
		return nil, errors.New("devicelock: deviceKey 不能为空")
	}
	opts = opts.withDefaults()
	deadline := time.Now().Add(opts.Timeout)

	for {
		if r.tryAcquire(deviceKey) {
			return &MemLock{registry: r, key: deviceKey}, nil
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
func (r *Registry) WithLock(ctx context.Context, deviceKey string, opts Options, fn func(ctx context.Context) error) error {
	lock, err := r.Acquire(ctx, deviceKey, opts)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn(ctx)
}

func (r *Registry) tryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[key] {
		return false
	}
	r.held[key] = true
	return true
}
