package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/healthcheck"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/middleware"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/repository"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/server/handler"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

type Deps struct {
	Runner *toolbox.Runner

	DeviceStore *device.Store

	// RunRepo 运行历史仓储（内存或 Postgres）
	RunRepo repository.RunRepository

	// HealthChecker 健康检查器
	HealthChecker *healthcheck.HealthChecker
}

// NewRouter 提供 Gin HTTP API
// @title Pistachio MCP API
// @version 1.0.0
// @description 移动端构建 / 测试驱动服务 API
// @BasePath /api/v1
// @schemes http https
func NewRouter(deps Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// 全局中间件
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.PayloadSizeLimit(middleware.MaxPayloadSize))
	r.Use(middleware.CORSMiddleware())

	// 创建各个 handler 实例
	healthHandler := handler.NewHealthHandler(deps.HealthChecker)
	queueHandler := handler.NewQueueHandler(deps.Runner)
	deviceHandler := handler.NewDeviceHandler(deps.DeviceStore)
	runHandler := handler.NewRunHandler(deps.Runner, deps.RunRepo)

	// 健康检查路由
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Prometheus metrics 端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		// 队列观测
		api.GET("/queue/stats", queueHandler.GetQueueStats)

		// 设备清单
		api.GET("/devices", deviceHandler.ListDevices)
		api.POST("/devices", deviceHandler.UpsertDevice)

		// 运行历史
		api.GET("/runs", runHandler.ListRuns)
		api.GET("/runs/:run_id", middleware.ValidateRunIDParam(), runHandler.GetRun)

		// 工具调用（与 MCP 入口走同一条准入队列）
		api.POST("/tools/:tool_name", middleware.ValidateToolNameParam(), runHandler.RunTool)
	}

	return r
}
