package monitor

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// 连接指标
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scopegrab_active_connections",
		Help: "当前活跃连接数",
	})

	TotalConnections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scopegrab_total_connections",
		Help: "总连接数",
	})

	// 命令指标
	CommandsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopegrab_commands_processed_total",
			Help: "处理成功的命令数",
		},
		[]string{"command"},
	)

	CommandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopegrab_command_errors_total",
			Help: "命令处理错误数",
		},
		[]string{"command"},
	)

	// 传输指标
	ScreenshotBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scopegrab_screenshot_bytes_total",
		Help: "抓屏传输的载荷字节总数",
	})

	ChecksumMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scopegrab_checksum_mismatches_total",
		Help: "校验和不匹配次数",
	})

	// 延迟指标
	CommandDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scopegrab_command_duration_seconds",
		Help:    "命令处理耗时 (含串口往返)",
		Buckets: prometheus.DefBuckets,
	})

	// Goroutine指标
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scopegrab_goroutines",
		Help: "当前Goroutine数量",
	})

	// 内存指标
	MemoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scopegrab_memory_usage_bytes",
		Help: "内存使用量",
	})
)

type Monitor struct {
	log *logrus.Logger
}

func NewMonitor(log *logrus.Logger) *Monitor {
	// 注册指标
	prometheus.MustRegister(
		ActiveConnections,
		TotalConnections,
		CommandsProcessed,
		CommandErrors,
		ScreenshotBytes,
		ChecksumMismatches,
		CommandDuration,
		GoroutineCount,
		MemoryUsage,
	)

	return &Monitor{log: log}
}

// StartMetricsServer 启动Metrics HTTP服务器
func (m *Monitor) StartMetricsServer(port int) {
	http.Handle("/metrics", promhttp.Handler())

	// 健康检查端点
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	m.log.Infof("Metrics服务器启动: %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			m.log.Errorf("Metrics服务器错误: %v", err)
		}
	}()
}

// StartRuntimeMonitor 启动运行时监控
func (m *Monitor) StartRuntimeMonitor() {
	ticker := time.NewTicker(10 * time.Second)

	go func() {
		for range ticker.C {
			GoroutineCount.Set(float64(runtime.NumGoroutine()))

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			MemoryUsage.Set(float64(memStats.Alloc))

			m.log.Debugf("Goroutines: %d, 内存: %.2f MB",
				runtime.NumGoroutine(),
				float64(memStats.Alloc)/1024/1024,
			)
		}
	}()
}
