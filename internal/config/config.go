package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	HTTP       HTTPConfig
	MCP        MCPConfig
	Queue      QueueConfig
	Lock       LockConfig
	Postgres   PostgresConfig
	DBPool     DBPoolConfig
	Monitoring MonitoringConfig
}

// HTTPConfig 管理 / 观测 HTTP 服务配置
type HTTPConfig struct {
	Addr string
}

// MCPConfig MCP 服务配置
type MCPConfig struct {
	Addr string
	Path string
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	// Capacity 全局并发上限（worker 数），必须 >= 1
	Capacity int
}

// LockConfig 设备锁配置
type LockConfig struct {
	// BaseDir 跨进程锁目录的父目录，空则使用系统临时目录
	BaseDir string
	// Timeout 获取设备锁的超时时间
	Timeout time.Duration
	// PollInterval 持有者存活时的轮询间隔
	PollInterval time.Duration
}

// PostgresConfig PostgreSQL 配置（可选，用于运行历史持久化）
type PostgresConfig struct {
	DSN string
}

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Enabled bool
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	// 允许从环境变量读取（优先级最高）
	v.AutomaticEnv()

	// 读取配置文件（如果存在）
	_ = v.ReadInConfig() // 忽略错误，因为可能只使用环境变量

	cfg := &Config{}

	// HTTP 配置
	cfg.HTTP.Addr = v.GetString("HTTP_ADDR")
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":28080"
	}

	// MCP 配置
	cfg.MCP.Addr = v.GetString("MCP_ADDR")
	if cfg.MCP.Addr == "" {
		cfg.MCP.Addr = ":28090"
	}
	cfg.MCP.Path = v.GetString("MCP_PATH")
	if cfg.MCP.Path == "" {
		cfg.MCP.Path = "/mcp"
	}

	// 队列配置
	cfg.Queue.Capacity = v.GetInt("QUEUE_CAPACITY")
	if cfg.Queue.Capacity == 0 {
		cfg.Queue.Capacity = 4
	}

	// 设备锁配置
	cfg.Lock.BaseDir = v.GetString("LOCK_BASE_DIR")

	cfg.Lock.Timeout = v.GetDuration("LOCK_TIMEOUT")
	if cfg.Lock.Timeout == 0 {
		cfg.Lock.Timeout = 10 * time.Minute
	}

	cfg.Lock.PollInterval = v.GetDuration("LOCK_POLL_INTERVAL")
	if cfg.Lock.PollInterval == 0 {
		cfg.Lock.PollInterval = 250 * time.Millisecond
	}

	// PostgreSQL 配置（可选：未设置则运行历史只保留在内存中）
	cfg.Postgres.DSN = v.GetString("POSTGRES_DSN")

	// 数据库连接池配置
	cfg.DBPool.MaxConns = int32(v.GetInt("DB_MAX_CONNS"))
	if cfg.DBPool.MaxConns == 0 {
		cfg.DBPool.MaxConns = 20
	}

	cfg.DBPool.MinConns = int32(v.GetInt("DB_MIN_CONNS"))
	if cfg.DBPool.MinConns == 0 {
		cfg.DBPool.MinConns = 5
	}

	cfg.DBPool.MaxConnLifetime = v.GetDuration("DB_MAX_CONN_LIFETIME")
	if cfg.DBPool.MaxConnLifetime == 0 {
		cfg.DBPool.MaxConnLifetime = 30 * time.Minute
	}

	cfg.DBPool.MaxConnIdleTime = v.GetDuration("DB_MAX_CONN_IDLE_TIME")
	if cfg.DBPool.MaxConnIdleTime == 0 {
		cfg.DBPool.MaxConnIdleTime = 5 * time.Minute
	}

	cfg.DBPool.HealthCheckPeriod = v.GetDuration("DB_HEALTH_CHECK_PERIOD")
	if cfg.DBPool.HealthCheckPeriod == 0 {
		cfg.DBPool.HealthCheckPeriod = 1 * time.Minute
	}

	// 监控配置
	cfg.Monitoring.Enabled = true
	if v.IsSet("MONITORING_ENABLED") {
		cfg.Monitoring.Enabled = v.GetBool("MONITORING_ENABLED")
	}

	return cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Queue.Capacity < 1 {
		return fmt.Errorf("QUEUE_CAPACITY 必须 >= 1，当前为 %d", c.Queue.Capacity)
	}
	if c.Lock.Timeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT 必须为正数")
	}
	if c.Lock.PollInterval <= 0 {
		return fmt.Errorf("LOCK_POLL_INTERVAL 必须为正数")
	}
	if c.Lock.PollInterval >= c.Lock.Timeout {
		return fmt.Errorf("LOCK_POLL_INTERVAL 必须小于 LOCK_TIMEOUT")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR 不能为空")
	}
	if c.MCP.Addr == "" {
		return fmt.Errorf("MCP_ADDR 不能为空")
	}
	return nil
}
