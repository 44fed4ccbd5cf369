package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/bytedance/sonic"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

// toolOutput 所有工具共用的输出结构
type toolOutput struct {
	RunID   string `json:"run_id"`
	Summary string `json:"summary,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

type androidBuildInput struct {
	ProjectDir string   `json:"project_dir" jsonschema:"Android 工程根目录（包含 gradlew）"`
	Tasks      []string `json:"tasks,omitempty" jsonschema:"gradle 任务列表，默认 assembleDebug"`
	ProjectID  string   `json:"project_id,omitempty" jsonschema:"项目标识，同一项目的调用串行执行"`
}

type androidTestInput struct {
	ProjectDir string `json:"project_dir" jsonschema:"Android 工程根目录（包含 gradlew）"`
	Task       string `json:"task,omitempty" jsonschema:"gradle 测试任务，默认 connectedDebugAndroidTest"`
	Device     string `json:"device" jsonschema:"adb 设备序列号，执行期间独占该设备"`
	ProjectID  string `json:"project_id,omitempty" jsonschema:"项目标识，同一项目的调用串行执行"`
}

type iosBuildInput struct {
	ProjectDir    string `json:"project_dir,omitempty" jsonschema:"iOS 工程目录"`
	Scheme        string `json:"scheme" jsonschema:"xcodebuild scheme"`
	Workspace     string `json:"workspace,omitempty" jsonschema:"可选的 .xcworkspace 路径"`
	Configuration string `json:"configuration,omitempty" jsonschema:"构建配置，默认 Debug"`
	ProjectID     string `json:"project_id,omitempty" jsonschema:"项目标识，同一项目的调用串行执行"`
}

type iosTestInput struct {
	ProjectDir string `json:"project_dir,omitempty" jsonschema:"iOS 工程目录"`
	Scheme     string `json:"scheme" jsonschema:"xcodebuild scheme"`
	Workspace  string `json:"workspace,omitempty" jsonschema:"可选的 .xcworkspace 路径"`
	Device     string `json:"device" jsonschema:"模拟器 UDID，执行期间独占该设备"`
	ProjectID  string `json:"project_id,omitempty" jsonschema:"项目标识，同一项目的调用串行执行"`
}

type listDevicesInput struct{}

type screenRecordInput struct {
	Device  string `json:"device" jsonschema:"adb 设备序列号，执行期间独占该设备"`
	Seconds int    `json:"seconds,omitempty" jsonschema:"录制时长（秒），默认 30，上限 180"`
	OutPath string `json:"out_path,omitempty" jsonschema:"本地输出路径"`
}

type queueStatsInput struct{}

type queueStatsOutput struct {
	Capacity       int            `json:"capacity"`
	Running        int            `json:"running"`
	QueueDepth     int            `json:"queue_depth"`
	RunningByGroup map[string]int `json:"running_by_group,omitempty"`
}

func (s *Server) registerTools(srv *mcpsdk.Server) {
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolbox.ToolAndroidBuild,
		Description: "执行 Android 工程的 gradle 构建",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, input androidBuildInput) (*mcpsdk.CallToolResult, toolOutput, error) {
		return s.invoke(ctx, toolbox.ToolAndroidBuild, input.ProjectID, "", toolbox.AndroidBuildArgs{
			ProjectDir: input.ProjectDir,
			Tasks:      input.Tasks,
		})
	})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolbox.ToolAndroidTest,
		Description: "在指定 Android 设备 / 模拟器上执行 instrumented 测试",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, input androidTestInput) (*mcpsdk.CallToolResult, toolOutput, error) {
		return s.invoke(ctx, toolbox.ToolAndroidTest, input.ProjectID, input.Device, toolbox.AndroidTestArgs{
			ProjectDir: input.ProjectDir,
			Task:       input.Task,
		})
	})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolbox.ToolIOSBuild,
		Description: "执行 iOS 工程的 xcodebuild 构建",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, input iosBuildInput) (*mcpsdk.CallToolResult, toolOutput, error) {
		return s.invoke(ctx, toolbox.ToolIOSBuild, input.ProjectID, "", toolbox.IOSBuildArgs{
			ProjectDir:    input.ProjectDir,
			Scheme:        input.Scheme,
			Workspace:     input.Workspace,
			Configuration: input.Configuration,
		})
	})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolbox.ToolIOSTest,
		Description: "在指定 iOS 模拟器上执行 xcodebuild test",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, input iosTestInput) (*mcpsdk.CallToolResult, toolOutput, error) {
		return s.invoke(ctx, toolbox.ToolIOSTest, input.ProjectID, input.Device, toolbox.IOSTestArgs{
			ProjectDir: input.ProjectDir,
			Scheme:     input.Scheme,
			Workspace:  input.Workspace,
		})
	})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolbox.ToolListDevices,
		Description: "刷新并列出已连接的 Android 设备与 iOS 模拟器",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ listDevicesInput) (*mcpsdk.CallToolResult, toolOutput, error) {
		return s.invoke(ctx, toolbox.ToolListDevices, "", "", struct{}{})
	})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolbox.ToolScreenRecord,
		Description: "在指定 Android 设备上录屏并拉取到本地",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, input screenRecordInput) (*mcpsdk.CallToolResult, toolOutput, error) {
		return s.invoke(ctx, toolbox.ToolScreenRecord, "", input.Device, toolbox.ScreenRecordArgs{
			Seconds: input.Seconds,
			OutPath: input.OutPath,
		})
	})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "queue_stats",
		Description: "查看准入队列状态：容量、运行数、等待数、各项目占用",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ queueStatsInput) (*mcpsdk.CallToolResult, queueStatsOutput, error) {
		q := s.runner.Queue()
		return nil, queueStatsOutput{
			Capacity:       q.Capacity(),
			Running:        q.RunningCount(),
			QueueDepth:     q.QueueDepth(),
			RunningByGroup: q.RunningByGroup(),
		}, nil
	})
}

// invoke 把工具参数编码后提交到准入队列，并等待结果
func (s *Server) invoke(ctx context.Context, tool, projectID, deviceKey string, args any) (*mcpsdk.CallToolResult, toolOutput, error) {
	raw, err := sonic.Marshal(args)
	if err != nil {
		return nil, toolOutput{}, err
	}

	out, err := s.runner.Invoke(ctx, tool, projectID, deviceKey, json.RawMessage(raw))
	if err != nil {
		return nil, toolOutput{}, err
	}
	return nil, toolOutput{
		RunID:   out.RunID,
		Summary: out.Summary,
		Stdout:  out.Stdout,
		Stderr:  out.Stderr,
	}, nil
}
