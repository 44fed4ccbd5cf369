package device

import (
	"context"
	"regexp"
	"strings"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/execx"
)

var simctlBootedRegex = regexp.MustCompile(`^\s*(.+?) \(([0-9A-Fa-f-]{36})\) \((Booted|Shutdown)\)`)

// Refresh 调用 adb / xcrun simctl 刷新设备清单。
// 两个工具链缺失哪个就跳过哪个，本机没装 Xcode 或 SDK 不算错误。
func Refresh(ctx context.Context, store *Store) error {
	if execx.LookPath("adb") {
		res, err := execx.Run(ctx, "adb", "devices")
		if err != nil {
			return err
		}
		for _, d := range ParseADBDevices(res.Stdout) {
			if _, err := store.Upsert(d); err != nil {
				return err
			}
			_ = store.UpdateLastSeen(d.Serial)
		}
	}

	if execx.LookPath("xcrun") {
		res, err := execx.Run(ctx, "xcrun", "simctl", "list", "devices")
		if err != nil {
			return err
		}
		for _, d := range ParseSimctlDevices(res.Stdout) {
			if _, err := store.Upsert(d); err != nil {
				return err
			}
			_ = store.UpdateLastSeen(d.Serial)
		}
	}

	return nil
}

// ParseADBDevices 解析 `adb devices` 的输出。
// 格式：首行 "List of devices attached"，随后每行 "<serial>\t<state>"。
func ParseADBDevices(out string) []Info {
	var devices []Info
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Info{
			Serial:    fields[0],
			Platform:  PlatformAndroid,
			State:     fields[1],
			IsEnabled: fields[1] == "device",
		})
	}
	return devices
}

// ParseSimctlDevices 解析 `xcrun simctl list devices` 的输出。
// 只收集 Booted / Shutdown 状态的模拟器，unavailable 的跳过。
func ParseSimctlDevices(out string) []Info {
	var devices []Info
	for _, line := range strings.Split(out, "\n") {
		m := simctlBootedRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		devices = append(devices, Info{
			Serial:    m[2],
			Platform:  PlatformIOS,
			Name:      strings.TrimSpace(m[1]),
			State:     m[3],
			IsEnabled: m[3] == "Booted",
		})
	}
	return devices
}
