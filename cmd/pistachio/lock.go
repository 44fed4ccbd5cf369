package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/devicelock"
)

// newLockCommand 在持有设备锁的前提下执行任意命令。
// 锁与服务端使用同一个锁目录，因此脚本可以和服务端安全地共享设备。
func newLockCommand() *cobra.Command {
	var (
		timeout time.Duration
		poll    time.Duration
		baseDir string
	)

	cmd := &cobra.Command{
		Use:   "lock <device> -- <command> [args...]",
		Short: "独占设备锁并执行命令",
		Example: `  pistachio lock emulator-5554 -- adb -s emulator-5554 shell pm list packages
  pistachio lock AB5C6DE7-1234-5678-90AB-CDEF12345678 --timeout 5m -- xcrun simctl io booted screenshot out.png`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash != 1 {
				return errors.New("用法: pistachio lock <device> -- <command> [args...]")
			}
			deviceKey := args[0]
			command := args[1:]

			lock, err := devicelock.Acquire(cmd.Context(), deviceKey, devicelock.Options{
				Timeout:      timeout,
				PollInterval: poll,
				BaseDir:      baseDir,
			})
			if err != nil {
				return err
			}
			defer lock.Release()

			c := exec.CommandContext(cmd.Context(), command[0], command[1:]...)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr

			if err := c.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					// 先释放锁再透传子进程退出码
					lock.Release()
					os.Exit(exitErr.ExitCode())
				}
				return fmt.Errorf("执行命令失败: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "获取设备锁的超时时间")
	cmd.Flags().DurationVar(&poll, "poll", 250*time.Millisecond, "持有者存活时的轮询间隔")
	cmd.Flags().StringVar(&baseDir, "lock-dir", "", "锁目录的父目录，空则使用系统临时目录")

	return cmd
}
