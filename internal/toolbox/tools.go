package toolbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/execx"
)

// 工具名称常量
const (
	ToolAndroidBuild = "android_build"
	ToolAndroidTest  = "android_test"
	ToolIOSBuild     = "ios_build"
	ToolIOSTest      = "ios_test"
	ToolListDevices  = "list_devices"
	ToolScreenRecord = "screen_record"
)

// AndroidBuildArgs android_build 参数
type AndroidBuildArgs struct {
	ProjectDir string   `json:"project_dir"`
	Tasks      []string `json:"tasks,omitempty"` // 默认 assembleDebug
}

// AndroidTestArgs android_test 参数
type AndroidTestArgs struct {
	ProjectDir string `json:"project_dir"`
	Task       string `json:"task,omitempty"` // 默认 connectedDebugAndroidTest
}

// IOSBuildArgs ios_build 参数
type IOSBuildArgs struct {
	ProjectDir    string `json:"project_dir"`
	Scheme        string `json:"scheme"`
	Workspace     string `json:"workspace,omitempty"`
	Configuration string `json:"configuration,omitempty"` // 默认 Debug
}

// IOSTestArgs ios_test 参数
type IOSTestArgs struct {
	ProjectDir string `json:"project_dir"`
	Scheme     string `json:"scheme"`
	Workspace  string `json:"workspace,omitempty"`
}

// ScreenRecordArgs screen_record 参数
type ScreenRecordArgs struct {
	Seconds int    `json:"seconds,omitempty"`  // 默认 30，上限 180（adb screenrecord 的限制）
	OutPath string `json:"out_path,omitempty"` // 本地输出路径，默认当前目录
}

// RegisterBuiltins 注册全部内置工具
func (r *Runner) RegisterBuiltins() {
	r.Register(ToolAndroidBuild, r.androidBuild)
	r.Register(ToolAndroidTest, r.androidTest)
	r.Register(ToolIOSBuild, r.iosBuild)
	r.Register(ToolIOSTest, r.iosTest)
	r.Register(ToolListDevices, r.listDevices)
	r.Register(ToolScreenRecord, r.screenRecord)
}

// androidBuild 在项目目录执行 gradle 构建。不接触设备，无需设备锁。
func (r *Runner) androidBuild(ctx context.Context, inv Invocation) (Outcome, error) {
	args, err := decodeArgs[AndroidBuildArgs](inv.Args)
	if err != nil {
		return Outcome{}, err
	}
	if args.ProjectDir == "" {
		return Outcome{}, fmt.Errorf("toolbox: project_dir 不能为空")
	}
	tasks := args.Tasks
	if len(tasks) == 0 {
		tasks = []string{"assembleDebug"}
	}

	res, err := execx.RunCmd(ctx, execx.Cmd{
		Name: "./gradlew",
		Args: tasks,
		Dir:  args.ProjectDir,
	})
	if err != nil {
		return Outcome{Stdout: res.Stdout, Stderr: res.Stderr}, err
	}
	return Outcome{
		Summary: "gradle " + strings.Join(tasks, " ") + " 完成",
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}, nil
}

// androidTest 在指定设备上执行 instrumented 测试。
// Runner 会在执行期间持有该设备的跨进程锁。
func (r *Runner) androidTest(ctx context.Context, inv Invocation) (Outcome, error) {
	args, err := decodeArgs[AndroidTestArgs](inv.Args)
	if err != nil {
		return Outcome{}, err
	}
	if args.ProjectDir == "" {
		return Outcome{}, fmt.Errorf("toolbox: project_dir 不能为空")
	}
	if inv.Device == "" {
		return Outcome{}, fmt.Errorf("toolbox: android_test 需要指定 device")
	}
	task := args.Task
	if task == "" {
		task = "connectedDebugAndroidTest"
	}

	res, err := execx.RunCmd(ctx, execx.Cmd{
		Name: "./gradlew",
		Args: []string{task},
		Dir:  args.ProjectDir,
		Env:  []string{"ANDROID_SERIAL=" + inv.Device},
	})
	if err != nil {
		return Outcome{Stdout: res.Stdout, Stderr: res.Stderr}, err
	}
	return Outcome{
		Summary: "设备 " + inv.Device + " 上的 " + task + " 完成",
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}, nil
}

// iosBuild 执行 xcodebuild 构建。不接触设备，无需设备锁。
func (r *Runner) iosBuild(ctx context.Context, inv Invocation) (Outcome, error) {
	args, err := decodeArgs[IOSBuildArgs](inv.Args)
	if err != nil {
		return Outcome{}, err
	}
	if args.Scheme == "" {
		return Outcome{}, fmt.Errorf("toolbox: scheme 不能为空")
	}
	configuration := args.Configuration
	if configuration == "" {
		configuration = "Debug"
	}

	cmdArgs := []string{"-scheme", args.Scheme, "-configuration", configuration}
	if args.Workspace != "" {
		cmdArgs = append([]string{"-workspace", args.Workspace}, cmdArgs...)
	}
	cmdArgs = append(cmdArgs, "build")

	res, err := execx.RunCmd(ctx, execx.Cmd{
		Name: "xcodebuild",
		Args: cmdArgs,
		Dir:  args.ProjectDir,
	})
	if err != nil {
		return Outcome{Stdout: res.Stdout, Stderr: res.Stderr}, err
	}
	return Outcome{
		Summary: "xcodebuild " + args.Scheme + " 构建完成",
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}, nil
}

// iosTest 在指定模拟器上执行 xcodebuild test。
func (r *Runner) iosTest(ctx context.Context, inv Invocation) (Outcome, error) {
	args, err := decodeArgs[IOSTestArgs](inv.Args)
	if err != nil {
		return Outcome{}, err
	}
	if args.Scheme == "" {
		return Outcome{}, fmt.Errorf("toolbox: scheme 不能为空")
	}
	if inv.Device == "" {
		return Outcome{}, fmt.Errorf("toolbox: ios_test 需要指定 device（模拟器 UDID）")
	}

	cmdArgs := []string{"-scheme", args.Scheme, "-destination", "id=" + inv.Device}
	if args.Workspace != "" {
		cmdArgs = append([]string{"-workspace", args.Workspace}, cmdArgs...)
	}
	cmdArgs = append(cmdArgs, "test")

	res, err := execx.RunCmd(ctx, execx.Cmd{
		Name: "xcodebuild",
		Args: cmdArgs,
		Dir:  args.ProjectDir,
	})
	if err != nil {
		return Outcome{Stdout: res.Stdout, Stderr: res.Stderr}, err
	}
	return Outcome{
		Summary: "模拟器 " + inv.Device + " 上的 " + args.Scheme + " 测试完成",
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}, nil
}

// listDevices 刷新并返回设备清单
func (r *Runner) listDevices(ctx context.Context, inv Invocation) (Outcome, error) {
	if err := device.Refresh(ctx, r.devices); err != nil {
		return Outcome{}, err
	}
	list := r.devices.List()

	encoded, err := sonic.Marshal(list)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Summary: "发现 " + strconv.Itoa(len(list)) + " 台设备",
		Stdout:  string(encoded),
	}, nil
}

// screenRecord 在设备上录屏并拉取到本地
func (r *Runner) screenRecord(ctx context.Context, inv Invocation) (Outcome, error) {
	args, err := decodeArgs[ScreenRecordArgs](inv.Args)
	if err != nil {
		return Outcome{}, err
	}
	if inv.Device == "" {
		return Outcome{}, fmt.Errorf("toolbox: screen_record 需要指定 device")
	}
	seconds := args.Seconds
	if seconds <= 0 {
		seconds = 30
	}
	if seconds > 180 {
		seconds = 180
	}
	outPath := args.OutPath
	if outPath == "" {
		outPath = "screenrecord-" + inv.RunID + ".mp4"
	}

	remote := "/sdcard/pistachio-" + inv.RunID + ".mp4"
	if _, err := execx.Run(ctx, "adb", "-s", inv.Device, "shell", "screenrecord",
		"--time-limit", strconv.Itoa(seconds), remote); err != nil {
		return Outcome{}, err
	}
	if _, err := execx.Run(ctx, "adb", "-s", inv.Device, "pull", remote, outPath); err != nil {
		return Outcome{}, err
	}
	// 尽力清理设备上的临时文件
	_, _ = execx.Run(ctx, "adb", "-s", inv.Device, "shell", "rm", "-f", remote)

	abs, _ := filepath.Abs(outPath)
	return Outcome{Summary: "录屏已保存到 " + abs}, nil
}
