package handler

import (
	"bufio"
	"context"
	"fmt"
	"image/color"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/internal/monitor"
	"github.com/dg1vs/PyScopeGrab/internal/raster"
	"github.com/dg1vs/PyScopeGrab/internal/scope"
	"github.com/dg1vs/PyScopeGrab/internal/storage"
	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// command 一条 SCPI 命令:错误上下文标签 + 实现
type command struct {
	ctx string
	run func(raw string) ([]byte, error)
}

// ConnectionHandler 处理一个网络连接:按行读取命令、分发、写回响应。
// 所有连接共享同一个 SharedSession,串口访问在其锁内串行化。
type ConnectionHandler struct {
	conn         net.Conn
	clientID     string
	session      *scope.SharedSession
	storage      *storage.MessageQueue // 可为 nil
	device       string
	fg, bg       color.RGBA
	log          *logrus.Logger
	writeTimeout time.Duration
	commands     map[string]command
}

func NewConnectionHandler(
	conn net.Conn,
	session *scope.SharedSession,
	storage *storage.MessageQueue,
	device string,
	fg, bg color.RGBA,
	log *logrus.Logger,
	writeTimeout time.Duration,
) *ConnectionHandler {
	h := &ConnectionHandler{
		conn:         conn,
		clientID:     conn.RemoteAddr().String(),
		session:      session,
		storage:      storage,
		device:       device,
		fg:           fg,
		bg:           bg,
		log:          log,
		writeTimeout: writeTimeout,
	}

	// 命令表:大小写不敏感精确匹配,带 "空格前内容" 回退
	h.commands = map[string]command{
		"*IDN?":         {ctx: "IDN", run: h.cmdIdentity},
		"IS?":           {ctx: "IS", run: h.cmdStatus},
		"HCOPY:DATA?":   {ctx: "HCOPY", run: h.cmdScreenshot},
		"MEAS:VOLT:DC?": {ctx: "MEAS", run: h.cmdMeasure},
	}
	return h
}

// Handle 处理连接,直到对端关闭或写失败
func (h *ConnectionHandler) Handle() {
	defer func() {
		h.conn.Close()
		monitor.ActiveConnections.Dec()
		h.log.Infof("连接关闭: %s", h.clientID)
	}()

	monitor.ActiveConnections.Inc()
	monitor.TotalConnections.Inc()
	h.log.Infof("新连接: %s", h.clientID)

	reader := bufio.NewReader(h.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			h.log.Debugf("连接断开: %s, 错误: %v", h.clientID, err)
			return
		}

		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}

		resp := h.dispatch(cmd)

		if h.writeTimeout > 0 {
			h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if _, err := h.conn.Write(resp); err != nil {
			h.log.Debugf("写响应失败: %s, 错误: %v", h.clientID, err)
			return
		}
	}
}

// dispatch 查表分发一条命令。命令内部的任何错误都在这里收口,
// 转成文本 ERR 响应,绝不因单条命令失败断开连接。
func (h *ConnectionHandler) dispatch(raw string) []byte {
	start := time.Now()

	key := strings.ToUpper(raw)
	name := key
	cmd, ok := h.commands[key]
	if !ok {
		// 带参数的命令:用第一个空格前的部分再查一次
		head, _, _ := strings.Cut(key, " ")
		if c, ok2 := h.commands[head]; ok2 {
			cmd, ok, name = c, true, head
		}
	}
	if !ok {
		monitor.CommandErrors.WithLabelValues("unrecognized").Inc()
		h.log.Warnf("无法识别的命令 [%s]: %q", h.clientID, raw)
		return []byte("ERR:UNRECOGNIZED " + raw + "\n")
	}

	resp, err := cmd.run(raw)
	monitor.CommandDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		monitor.CommandErrors.WithLabelValues(name).Inc()
		h.log.Warnf("命令执行失败 [%s] %s: %v", h.clientID, name, err)
		return []byte(fmt.Sprintf("ERR:%s %v\n", cmd.ctx, err))
	}

	monitor.CommandsProcessed.WithLabelValues(name).Inc()
	h.log.Debugf("命令处理成功 [%s]: %s, 耗时=%.3fms",
		h.clientID, name, time.Since(start).Seconds()*1000)
	return resp
}

// cmdIdentity *IDN? -> "FLUKE,<model>,-,<firmware>"
func (h *ConnectionHandler) cmdIdentity(string) ([]byte, error) {
	var idn string
	err := h.session.With(func(s *scope.Session) error {
		rec, err := s.Identity()
		if err != nil {
			return err
		}
		idn = rec.SCPI()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(idn + "\n"), nil
}

// cmdStatus IS? -> 状态位字段的十进制表示
func (h *ConnectionHandler) cmdStatus(string) ([]byte, error) {
	var status protocol.StatusBits
	err := h.session.With(func(s *scope.Session) error {
		st, err := s.Status()
		if err != nil {
			return err
		}
		status = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(strconv.Itoa(int(status)) + "\n"), nil
}

// cmdScreenshot HCOPY:DATA? -> PNG 字节的二进制块响应
func (h *ConnectionHandler) cmdScreenshot(string) ([]byte, error) {
	var (
		pngBytes []byte
		info     *protocol.TransferInfo
	)
	err := h.session.With(func(s *scope.Session) error {
		img, ti, err := s.GrabImage(h.fg, h.bg)
		if err != nil {
			return err
		}
		info = ti

		pngBytes, err = raster.EncodePNG(img)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitor.ScreenshotBytes.Add(float64(info.Received))
	if !info.ChecksumOK {
		monitor.ChecksumMismatches.Inc()
	}

	if h.storage != nil {
		ev := &protocol.CaptureEvent{
			Device:      h.device,
			Timestamp:   time.Now(),
			Source:      "scpi",
			PayloadSize: info.Received,
			ChecksumOK:  info.ChecksumOK,
			PNGSize:     len(pngBytes),
		}
		if err := h.storage.PublishCapture(context.Background(), ev); err != nil {
			h.log.Errorf("发布抓屏事件失败: %v", err)
		}
	}

	resp := protocol.EncodeBinblock(pngBytes)
	return append(resp, '\n'), nil
}

// cmdMeasure MEAS:VOLT:DC? -> 通道 1 纯数值读数
func (h *ConnectionHandler) cmdMeasure(string) ([]byte, error) {
	var value float64
	err := h.session.With(func(s *scope.Session) error {
		v, err := s.MeasurementValue(1)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.storage != nil {
		ev := &protocol.MeasurementEvent{
			Device:    h.device,
			Timestamp: time.Now(),
			Channel:   1,
			Value:     value,
		}
		if err := h.storage.PublishMeasurement(context.Background(), ev); err != nil {
			h.log.Errorf("发布测量事件失败: %v", err)
		}
	}

	return []byte(strconv.FormatFloat(value, 'g', -1, 64) + "\n"), nil
}
