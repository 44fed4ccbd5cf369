// Package mcpserver 对外提供 MCP streamable HTTP 服务。
// 协议帧由官方 go-sdk 负责；这里只声明工具表，并把每次调用
// 原样提交到 toolbox 的准入队列，再把队列结果原样返回给传输层。
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/logger"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

// Config MCP 服务配置
type Config struct {
	Addr string // 监听地址
	Path string // MCP HTTP 路径，默认 /mcp
}

// Server MCP 服务
type Server struct {
	cfg    Config
	runner *toolbox.Runner
}

// New 创建 MCP 服务
func New(cfg Config, runner *toolbox.Runner) *Server {
	if cfg.Path == "" {
		cfg.Path = "/mcp"
	}
	return &Server{cfg: cfg, runner: runner}
}

// Handler 构建 MCP HTTP handler（独立暴露便于测试与组合）
func (s *Server) Handler() http.Handler {
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "pistachio-mcp",
		Version: "1.0.0",
	}, &mcpsdk.ServerOptions{
		Instructions: serverInstructions,
	})
	s.registerTools(srv)

	streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
		return srv
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, streamable)
	return mux
}

// Run 启动 MCP HTTP 服务，ctx 结束时优雅关闭
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info().Str("addr", s.cfg.Addr).Str("path", s.cfg.Path).Msg("MCP 服务监听")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

const serverInstructions = `Pistachio 提供移动端构建与设备测试工具。` +
	`传入 project_id 可让同一项目的调用串行、不同项目并发；` +
	`涉及设备的工具会在执行期间独占该设备（跨进程锁）。` +
	`先用 list_devices 查看可用的模拟器 / 真机。`
