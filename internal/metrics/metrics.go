package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pistachio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pistachio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 工具运行指标
	ToolRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pistachio_tool_runs_total",
			Help: "Total number of tool runs",
		},
		[]string{"tool", "status"},
	)

	ToolRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pistachio_tool_run_duration_seconds",
			Help:    "Tool run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"tool"},
	)

	// 队列指标
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pistachio_queue_depth",
			Help: "Number of tasks waiting for admission",
		},
	)

	QueueRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pistachio_queue_running",
			Help: "Number of tasks currently executing",
		},
	)

	// 设备锁指标
	LockWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pistachio_device_lock_wait_seconds",
			Help:    "Time spent waiting for a device lock",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"device"},
	)

	LockTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pistachio_device_lock_timeouts_total",
			Help: "Total number of device lock acquisition timeouts",
		},
		[]string{"device"},
	)

	// 错误指标
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pistachio_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "type"},
	)
)

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path string, status int, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordToolRun 记录一次工具运行
func RecordToolRun(tool, status string, duration float64) {
	ToolRunsTotal.WithLabelValues(tool, status).Inc()
	ToolRunDuration.WithLabelValues(tool).Observe(duration)
}

// RecordQueueSnapshot 记录队列深度与运行数
func RecordQueueSnapshot(depth, running int) {
	QueueDepth.Set(float64(depth))
	QueueRunning.Set(float64(running))
}

// RecordLockWait 记录设备锁等待耗时
func RecordLockWait(device string, seconds float64) {
	LockWaitDuration.WithLabelValues(device).Observe(seconds)
}

// RecordLockTimeout 记录设备锁获取超时
func RecordLockTimeout(device string) {
	LockTimeoutsTotal.WithLabelValues(device).Inc()
}

// RecordError 记录错误
func RecordError(component, errType string) {
	ErrorsTotal.WithLabelValues(component, errType).Inc()
}

// statusClass 把状态码归类为 2xx/3xx/4xx/5xx
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
