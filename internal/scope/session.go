package scope

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/internal/raster"
	"github.com/dg1vs/PyScopeGrab/internal/transport"
	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// Session 一台 ScopeMeter 的会话:组合传输层、命令通道与各查询协议。
// 非并发安全,多连接共享时用 SharedSession 包装。
type Session struct {
	device string
	tr     Transport
	cmd    *Command
	log    *logrus.Logger
}

// NewSession 在现成的传输层上构造会话,不做波特率引导
func NewSession(tr Transport, log *logrus.Logger) *Session {
	return &Session{
		tr:  tr,
		cmd: NewCommand(tr, log),
		log: log,
	}
}

// Open 打开串口 (上电波特率 1200) 并完成到 19200 的引导
func Open(device string, timeout time.Duration, log *logrus.Logger) (*Session, error) {
	log.Info("打开并配置串口...")

	tr, err := transport.Open(device, protocol.PowerOnBaud, timeout, log)
	if err != nil {
		return nil, err
	}

	s := NewSession(tr, log)
	s.device = device

	if err := s.upgradeBaud(); err != nil {
		tr.Close()
		return nil, err
	}

	log.Infof("切换到 %d 波特完成", protocol.TargetBaud)
	return s, nil
}

// upgradeBaud 波特率引导:先软发送 PC 命令 (设备可能已处于高波特率,
// 此时超时属正常),无论成败都把本地波特率切到目标值,软发送失败时
// 再以硬模式重发一次。
func (s *Session) upgradeBaud() error {
	cmd := fmt.Sprintf("PC%d,N,8,1", protocol.TargetBaud)

	ok, err := s.cmd.SendSoft(cmd)
	if err != nil {
		return err
	}

	if err := s.tr.SetBaud(protocol.TargetBaud); err != nil {
		return err
	}

	if !ok {
		if err := s.cmd.Send(cmd); err != nil {
			return fmt.Errorf("波特率引导失败: %w", err)
		}
	}
	return nil
}

// Device 返回设备路径
func (s *Session) Device() string {
	return s.device
}

// Close 关闭底层串口
func (s *Session) Close() error {
	return s.tr.Close()
}

// GrabImage 主动抓屏并解码为 240x240 位图
func (s *Session) GrabImage(fg, bg color.RGBA) (*image.RGBA, *protocol.TransferInfo, error) {
	payload, info, err := s.Screenshot()
	if err != nil {
		return nil, nil, err
	}
	return raster.Decode(payload, fg, bg), info, nil
}

// WaitPrintImage 被动等待设备打印并解码为 240x240 位图
func (s *Session) WaitPrintImage(fg, bg color.RGBA) (*image.RGBA, *protocol.TransferInfo, error) {
	payload, info, err := s.WaitPrint()
	if err != nil {
		return nil, nil, err
	}
	return raster.Decode(payload, fg, bg), info, nil
}
