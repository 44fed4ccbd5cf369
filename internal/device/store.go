package device

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// Platform 设备平台
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Info 是一台设备（模拟器 / 真机）的完整信息。
// Serial 同时也是设备锁的键。
type Info struct {
	Serial     string     `json:"serial"` // adb serial 或 simctl UDID
	Platform   Platform   `json:"platform"`
	Name       string     `json:"name,omitempty"`
	State      string     `json:"state,omitempty"` // device / offline / Booted / Shutdown
	IsEnabled  bool       `json:"is_enabled"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// Store 进程内设备清单
type Store struct {
	mu    sync.RWMutex
	items map[string]Info // key: serial
}

func NewStore() *Store {
	return &Store{
		items: map[string]Info{},
	}
}

// List 返回所有设备
func (s *Store) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}

	// 按 serial 排序
	sort.Slice(out, func(i, j int) bool {
		return out[i].Serial < out[j].Serial
	})

	return out
}

// Get 获取指定设备
func (s *Store) Get(serial string) (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[serial]
	return v, ok
}

// Upsert 创建或更新设备
func (s *Store) Upsert(d Info) (Info, error) {
	d.Serial = strings.TrimSpace(d.Serial)
	if d.Serial == "" {
		return Info{}, errors.New("serial 不能为空")
	}

	switch d.Platform {
	case PlatformAndroid, PlatformIOS:
	default:
		return Info{}, errors.New("platform 必须是 android 或 ios")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[d.Serial]; ok && d.LastSeenAt == nil {
		// 更新时保留已有的 last_seen 时间
		d.LastSeenAt = existing.LastSeenAt
	}
	s.items[d.Serial] = d
	return d, nil
}

// UpdateLastSeen 更新设备的最近发现时间
func (s *Store) UpdateLastSeen(serial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.items[serial]
	if !ok {
		return errors.New("设备不存在")
	}

	now := time.Now()
	d.LastSeenAt = &now
	s.items[serial] = d
	return nil
}

// Delete 删除指定设备
func (s *Store) Delete(serial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[serial]; !ok {
		return errors.New("设备不存在")
	}

	delete(s.items, serial)
	return nil
}
