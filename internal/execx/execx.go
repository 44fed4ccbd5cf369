// Package execx 封装外部命令执行（adb / gradle / xcodebuild / ffmpeg 等）。
// 队列与设备锁对命令内容完全无感，这里只负责启动进程并收集输出。
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Result 命令执行结果
type Result struct {
	Stdout string
	Stderr string
}

// ExitError 命令以非零状态退出。
// 携带已产生的部分输出，便于上层把构建 / 测试日志透传给调用方。
type ExitError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("execx: 命令 %q 退出码 %d", e.Command, e.ExitCode)
}

// Cmd 一次命令执行的完整描述
type Cmd struct {
	Name string
	Args []string
	Dir  string   // 工作目录，空则继承当前进程
	Env  []string // 追加到当前进程环境变量之后，形如 KEY=VALUE
}

// Run 执行命令并等待结束。超时 / 取消通过 ctx 控制。
// 非零退出返回 *ExitError；命令无法启动等其他失败原样返回。
func Run(ctx context.Context, name string, args ...string) (Result, error) {
	return RunCmd(ctx, Cmd{Name: name, Args: args})
}

// RunCmd 按完整描述执行命令
func RunCmd(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	// ctx 超时 / 取消优先于退出码上报
	if ctx.Err() != nil {
		return res, fmt.Errorf("execx: 命令 %q 被中断: %w", c.Name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Command:  commandLine(c.Name, c.Args),
			ExitCode: exitErr.ExitCode(),
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
	return res, fmt.Errorf("execx: 启动命令 %q 失败: %w", c.Name, err)
}

// LookPath 检查命令是否在 PATH 中可用
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
