package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

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

// @title Pistachio MCP API
// @version 1.0.0
// @description 移动端构建 / 测试驱动服务 - 通过 MCP 与 HTTP 驱动 Android / iOS 构建和测试
// @license.name MIT
// @BasePath /api/v1
// @schemes http https
// @host localhost:28080

// 说明：
// - 单进程同时启动 Gin(HTTP 观测面) 和 MCP(streamable HTTP)，便于本地与容器部署。

func main() {
	// 初始化结构化日志（开发模式）
	if err := logger.Init(false); err != nil {
		logger.L.Fatal().Err(err).Msg("初始化日志失败")
		os.Exit(1)
	}
	defer logger.Sync()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.L.Fatal().Err(err).Msg("加载配置失败")
	}

	// 验证配置
	if err := cfg.Validate(); err != nil {
		logger.L.Fatal().Err(err).Msg("配置验证失败")
	}

	logger.L.Info().
		Str("http", cfg.HTTP.Addr).
		Str("mcp", cfg.MCP.Addr).
		Int("capacity", cfg.Queue.Capacity).
		Msg("服务启动")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 运行历史：默认内存；配置了 Postgres 则落库
	var (
		runRepo repository.RunRepository = repository.NewMemRunRepo(0)
		pgPool  *pgxpool.Pool
	)
	if cfg.Postgres.DSN != "" {
		dbCfg := postgres.DBConfig{
			MaxOpenConns:    int(cfg.DBPool.MaxConns),
			MaxIdleConns:    int(cfg.DBPool.MinConns),
			ConnMaxLifetime: cfg.DBPool.MaxConnLifetime,
			ConnMaxIdleTime: cfg.DBPool.MaxConnIdleTime,
		}

		db, err := postgres.NewDBWithConfig(ctx, cfg.Postgres.DSN, dbCfg)
		if err != nil {
			logger.L.Fatal().Err(err).Msg("连接数据库失败")
		}
		defer db.Close()

		// 应用迁移
		sqlDB, err := db.DB.DB()
		if err != nil {
			logger.L.Fatal().Err(err).Msg("获取底层连接失败")
		}
		if err := postgres.ApplyMigrationsFromDir(ctx, sqlDB, "migrations"); err != nil {
			logger.L.Fatal().Err(err).Msg("应用迁移失败")
		}

		pgPool, err = postgres.NewPgxPool(ctx, cfg.Postgres.DSN, postgres.PgxPoolConfig{
			MaxConns:          cfg.DBPool.MaxConns,
			MinConns:          cfg.DBPool.MinConns,
			MaxConnLifetime:   cfg.DBPool.MaxConnLifetime,
			MaxConnIdleTime:   cfg.DBPool.MaxConnIdleTime,
			HealthCheckPeriod: cfg.DBPool.HealthCheckPeriod,
		})
		if err != nil {
			logger.L.Fatal().Err(err).Msg("创建 pgx 连接池失败")
		}
		defer pgPool.Close()

		runRepo = repository.NewRunRepo(pgPool)
		logger.L.Info().Msg("运行历史已启用 Postgres 持久化")
	}

	// 设备清单：启动时做一次发现，失败不阻断启动
	deviceStore := device.NewStore()
	if err := device.Refresh(ctx, deviceStore); err != nil {
		logger.L.Warn().Err(err).Msg("启动时设备发现失败")
	} else {
		logger.L.Info().Int("count", len(deviceStore.List())).Msg("设备发现完成")
	}

	// 工具执行器：准入队列 + 设备锁
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
		logger.L.Fatal().Err(err).Msg("创建工具执行器失败")
	}
	runner.RegisterBuiltins()

	// 健康检查器
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

	// MCP 服务（streamable HTTP）
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
}
