package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/storage/postgres"
)

// newMigrateCommand 对运行历史库应用 .sql 迁移
func newMigrateCommand() *cobra.Command {
	var (
		dsn string
		dir string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "应用数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("POSTGRES_DSN")
			}
			if dsn == "" {
				return errors.New("未配置 POSTGRES_DSN")
			}

			db, err := postgres.OpenStdlib(dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.ApplyMigrationsFromDir(cmd.Context(), db, dir); err != nil {
				return err
			}
			fmt.Println("迁移完成")
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN，空则读取 POSTGRES_DSN")
	cmd.Flags().StringVar(&dir, "dir", "migrations", "迁移脚本目录")

	return cmd
}
