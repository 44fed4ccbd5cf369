package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	_ "github.com/jack-beanstalk-2022/PistachioMCP/docs" // Swagger docs
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/config"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/devicelock"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/healthcheck"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/logger"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/mcpserver"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/repository"
	httpserver "github.com/jack-beanstalk-2022/PistachioMCP/internal/server"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/storage/postgres"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

// newServeCommand 启动服务端（与 cmd/server 同一条启动路径）
func newServeCommand() *cobra.Command {
	var production bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP + MCP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(production); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&production, "production", false, "生产模式（JSON 日志）")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger.L.Info().
		Str("http", cfg.HTTP.Addr).
		Str("mcp", cfg.MCP.Addr).
		Int("capacity", cfg.Queue.Capacity).
		Msg("服务启动")

	// 运行历史：默认内存；配置了 Postgres 则落库
	var (
		runRepo repository.RunRepository = repository.NewMemRunRepo(0)
		pgPool  *pgxpool.Pool
	)
	if cfg.Postgres.DSN != "" {
		db, err := postgres.NewDBWithConfig(ctx, cfg.Postgres.DSN, postgres.DBConfig{
			MaxOpenConns:    int(cfg.DBPool.MaxConns),
			MaxIdleConns:    int(cfg.DBPool.MinConns),
			ConnMaxLifetime: cfg.DBPool.MaxConnLifetime,
			ConnMaxIdleTime: cfg.DBPool.MaxConnIdleTime,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		if err := postgres.ApplyMigrationsFromDir(ctx, sqlDB, "migrations"); err != nil {
			return err
		}

		pgPool, err = postgres.NewPgxPool(ctx, cfg.Postgres.DSN, postgres.PgxPoolConfig{
			MaxConns:          cfg.DBPool.MaxConns,
			MinConns:          cfg.DBPool.MinConns,
			MaxConnLifetime:   cfg.DBPool.MaxConnLifetime,
			MaxConnIdleTime:   cfg.DBPool.MaxConnIdleTime,
			HealthCheckPeriod: cfg.DBPool.HealthCheckPeriod,
		})
		if err != nil {
			return err
		}
		defer pgPool.Close()

		runRepo = repository.NewRunRepo(pgPool)
		logger.L.Info().Msg("运行历史已启用 Postgres 持久化")
	}

	deviceStore := device.NewStore()
	if err := device.Refresh(ctx, deviceStore); err != nil {
		logger.L.Warn().Err(err).Msg("启动时设备发现失败")
	}

	runner, err := toolbox.NewRunner(toolbox.Config{
		Capacity: cfg.Queue.Capacity,
		Devices:  deviceStore,
		Runs:     runRepo,
		LockOpts: devicelock.Options{
			BaseDir:      cfg.Lock.BaseDir,
			Timeout:      cfg.Lock.Timeout,
			PollInterval: cfg.Lock.PollInterval,
		},
	})
	if err != nil {
		return err
	}
	runner.RegisterBuiltins()

	healthChecker := healthcheck.NewHealthChecker(pgPool, runner)

	httpSrv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpserver.NewRouter(httpserver.Deps{
			Runner:        runner,
			DeviceStore:   deviceStore,
			RunRepo:       runRepo,
			HealthChecker: healthChecker,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.L.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP 服务监听")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Fatal().Err(err).Msg("HTTP 服务错误")
		}
	}()

	mcpSrv := mcpserver.New(mcpserver.Config{
		Addr: cfg.MCP.Addr,
		Path: cfg.MCP.Path,
	}, runner)

	go func() {
		if err := mcpSrv.Run(ctx); err != nil {
			logger.L.Fatal().Err(err).Msg("MCP 服务错误")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(shutdownCtx)
	logger.L.Info().Msg("服务已优雅关闭")
	return nil
}
