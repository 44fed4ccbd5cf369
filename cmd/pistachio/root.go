package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var serverAddr string

// newRootCommand 构建 CLI 根命令
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pistachio",
		Short:         "移动端构建 / 测试驱动服务",
		Long:          "pistachio 通过 MCP 与 HTTP 驱动 Android / iOS 构建和测试：\n准入队列限制全局并发、同项目串行，跨进程设备锁保证设备独占。",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 不存在不是错误
			if _, err := os.Stat(".env"); err == nil {
				_ = godotenv.Load()
			}
		},
	}

	root.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:28080", "服务端 HTTP 地址（客户端命令使用）")

	root.AddCommand(newServeCommand())
	root.AddCommand(newLockCommand())
	root.AddCommand(newDevicesCommand())
	root.AddCommand(newRunCommand())
	root.AddCommand(newMigrateCommand())

	return root
}
