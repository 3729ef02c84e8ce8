package server

import (
	"context"
	"fmt"
	"image/color"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/internal/config"
	"github.com/dg1vs/PyScopeGrab/internal/handler"
	"github.com/dg1vs/PyScopeGrab/internal/monitor"
	"github.com/dg1vs/PyScopeGrab/internal/raster"
	"github.com/dg1vs/PyScopeGrab/internal/scope"
	"github.com/dg1vs/PyScopeGrab/internal/storage"
)

// TCPServer 行式 SCPI 前端:每个连接一个 goroutine,
// 全部连接共享唯一的仪器会话。
type TCPServer struct {
	config   *config.Config
	listener net.Listener
	session  *scope.SharedSession
	storage  *storage.MessageQueue // 可为 nil
	monitor  *monitor.Monitor
	fg, bg   color.RGBA
	log      *logrus.Logger
	limiter  chan struct{}
	wg       sync.WaitGroup
	shutdown chan struct{}
}

func NewTCPServer(cfg *config.Config, log *logrus.Logger) (*TCPServer, error) {
	fg, err := raster.ParseHexColor(cfg.Colors.Foreground)
	if err != nil {
		return nil, fmt.Errorf("前景色配置无效: %w", err)
	}
	bg, err := raster.ParseHexColor(cfg.Colors.Background)
	if err != nil {
		return nil, fmt.Errorf("背景色配置无效: %w", err)
	}

	// 共享会话:工厂注入,串口由所有连接共用且至多打开一次
	session := scope.NewSharedSession(func() (*scope.Session, error) {
		return scope.Open(cfg.Serial.Device, cfg.Serial.ReadTimeout, log)
	})

	// 创建消息队列 (可选)
	var mq *storage.MessageQueue
	if cfg.Redis.Enabled {
		mq, err = storage.NewMessageQueue(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.Channel,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			log,
		)
		if err != nil {
			return nil, err
		}
	}

	// 创建监控
	mon := monitor.NewMonitor(log)

	return &TCPServer{
		config:   cfg,
		session:  session,
		storage:  mq,
		monitor:  mon,
		fg:       fg,
		bg:       bg,
		log:      log,
		limiter:  make(chan struct{}, cfg.Server.MaxConnections),
		shutdown: make(chan struct{}),
	}, nil
}

func (s *TCPServer) Start() error {
	// 启动监控
	if s.config.Monitor.Enabled {
		s.monitor.StartMetricsServer(s.config.Monitor.MetricsPort)
		s.monitor.StartRuntimeMonitor()
	}

	// 立即打开串口 (可选);默认在首条命令时惰性打开
	if s.config.Server.OpenOnStart {
		if err := s.session.Open(); err != nil {
			return fmt.Errorf("启动时打开串口失败: %w", err)
		}
	}

	// 监听TCP端口
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	lc := net.ListenConfig{
		KeepAlive: s.config.Server.KeepAlive,
	}

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}

	s.listener = listener
	s.log.Infof("服务器启动成功: %s (串口: %s, 最大连接: %d)",
		addr, s.config.Serial.Device, s.config.Server.MaxConnections)

	// 优雅退出处理
	go s.handleShutdown()

	// 接受连接
	for {
		select {
		case <-s.shutdown:
			s.log.Info("停止接受新连接")
			return nil
		default:
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
				s.log.Errorf("接受连接错误: %v", err)
				continue
			}
		}

		// 连接数限制
		select {
		case s.limiter <- struct{}{}:
			s.wg.Add(1)
			go s.handleConnection(conn)
		default:
			s.log.Warn("达到最大连接数，拒绝连接")
			conn.Close()
		}
	}
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer func() {
		<-s.limiter
		s.wg.Done()
	}()

	h := handler.NewConnectionHandler(
		conn,
		s.session,
		s.storage,
		s.config.Serial.Device,
		s.fg,
		s.bg,
		s.log,
		s.config.Server.WriteTimeout,
	)

	h.Handle()
}

func (s *TCPServer) handleShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	s.log.Infof("收到信号: %v, 开始优雅关闭...", sig)

	close(s.shutdown)

	// 停止接受新连接
	if s.listener != nil {
		s.listener.Close()
	}

	// 等待现有连接处理完成 (最多30秒)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("所有连接已关闭")
	case <-time.After(30 * time.Second):
		s.log.Warn("关闭超时，强制退出")
	}

	// 关闭串口
	if err := s.session.Close(); err != nil {
		s.log.Errorf("关闭串口失败: %v", err)
	}

	// 关闭存储连接
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			s.log.Errorf("关闭存储连接失败: %v", err)
		}
	}

	s.log.Info("服务器已关闭")
	os.Exit(0)
}
