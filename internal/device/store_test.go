package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Upsert(t *testing.T) {
	store := NewStore()

	d := Info{
		Serial:    "emulator-5554",
		Platform:  PlatformAndroid,
		State:     "device",
		IsEnabled: true,
	}

	// 测试插入
	_, err := store.Upsert(d)
	assert.NoError(t, err, "插入应该成功")

	// 验证存储
	retrieved, ok := store.Get("emulator-5554")
	require.True(t, ok, "应该能获取刚插入的设备")
	assert.Equal(t, d.Serial, retrieved.Serial)
	assert.Equal(t, PlatformAndroid, retrieved.Platform)

	// 测试更新
	d.State = "offline"
	d.IsEnabled = false
	_, err = store.Upsert(d)
	assert.NoError(t, err, "更新应该成功")

	retrieved, ok = store.Get("emulator-5554")
	require.True(t, ok)
	assert.Equal(t, "offline", retrieved.State)
	assert.False(t, retrieved.IsEnabled)
}

func TestStore_Validate(t *testing.T) {
	store := NewStore()

	t.Run("empty serial", func(t *testing.T) {
		_, err := store.Upsert(Info{Platform: PlatformAndroid})
		assert.Error(t, err)
	})

	t.Run("invalid platform", func(t *testing.T) {
		_, err := store.Upsert(Info{Serial: "x", Platform: "tizen"})
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		_, err := store.Upsert(Info{Serial: "x", Platform: PlatformIOS})
		assert.NoError(t, err)
	})
}

func TestStore_Delete(t *testing.T) {
	store := NewStore()
	store.Upsert(Info{Serial: "emulator-5554", Platform: PlatformAndroid})

	err := store.Delete("emulator-5554")
	assert.NoError(t, err, "应该成功删除")

	_, ok := store.Get("emulator-5554")
	assert.False(t, ok, "删除后不应该能获取")

	err = store.Delete("non-existent")
	assert.Error(t, err, "删除不存在的应该返回错误")
}

func TestStore_List(t *testing.T) {
	store := NewStore()

	assert.Empty(t, store.List(), "初始列表应为空")

	store.Upsert(Info{Serial: "b-device", Platform: PlatformAndroid})
	store.Upsert(Info{Serial: "a-device", Platform: PlatformAndroid})
	store.Upsert(Info{Serial: "c-device", Platform: PlatformIOS})

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a-device", list[0].Serial, "应该按 serial 排序")
	assert.Equal(t, "c-device", list[2].Serial)
}

func TestStore_UpdateLastSeen(t *testing.T) {
	store := NewStore()
	store.Upsert(Info{Serial: "emulator-5554", Platform: PlatformAndroid})

	err := store.UpdateLastSeen("emulator-5554")
	require.NoError(t, err)

	d, _ := store.Get("emulator-5554")
	assert.NotNil(t, d.LastSeenAt)

	assert.Error(t, store.UpdateLastSeen("missing"), "不存在的设备应该返回错误")
}

func TestParseADBDevices(t *testing.T) {
	out := `List of devices attached
emulator-5554	device
192.168.1.5:5555	offline

`
	devices := ParseADBDevices(out)
	require.Len(t, devices, 2)

	assert.Equal(t, "emulator-5554", devices[0].Serial)
	assert.Equal(t, PlatformAndroid, devices[0].Platform)
	assert.True(t, devices[0].IsEnabled)

	assert.Equal(t, "192.168.1.5:5555", devices[1].Serial)
	assert.False(t, devices[1].IsEnabled, "offline 设备不应启用")
}

func TestParseSimctlDevices(t *testing.T) {
	out := `== Devices ==
-- iOS 17.5 --
    iPhone 15 (D6D7B1BC-0B56-4F8A-9A2C-123456789ABC) (Booted)
    iPhone 15 Pro (A1B2C3D4-0000-4F8A-9A2C-CBA987654321) (Shutdown)
    iPad mini (unavailable, runtime profile not found)
`
	devices := ParseSimctlDevices(out)
	require.Len(t, devices, 2)

	assert.Equal(t, "D6D7B1BC-0B56-4F8A-9A2C-123456789ABC", devices[0].Serial)
	assert.Equal(t, "iPhone 15", devices[0].Name)
	assert.Equal(t, PlatformIOS, devices[0].Platform)
	assert.True(t, devices[0].IsEnabled)

	assert.Equal(t, "iPhone 15 Pro", devices[1].Name)
	assert.False(t, devices[1].IsEnabled, "Shutdown 的模拟器不应启用")
}
