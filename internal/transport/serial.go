package transport

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// NoTimeout 传给 SetReadTimeout 表示无限阻塞,仅限载荷传输期间使用
const NoTimeout time.Duration = -1

// Serial 持有物理串口:字节级读写原语、读超时与可变波特率。
// 一个 Serial 只属于一个会话,不做内部加锁。
type Serial struct {
	device  string
	port    serial.Port
	timeout time.Duration
	log     *logrus.Logger
}

// Open 以指定波特率打开串口 (8N1)
func Open(device string, baud int, timeout time.Duration, log *logrus.Logger) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("打开串口失败 %s: %w", device, err)
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("设置读超时失败: %w", err)
	}

	log.Infof("串口已打开: %s @ %d", device, baud)

	return &Serial{
		device:  device,
		port:    port,
		timeout: timeout,
		log:     log,
	}, nil
}

// Device 返回设备路径
func (s *Serial) Device() string {
	return s.device
}

// Write 写入全部字节
func (s *Serial) Write(p []byte) error {
	if s.port == nil {
		return protocol.ErrPortNotOpen
	}

	n, err := s.port.Write(p)
	if err != nil {
		return fmt.Errorf("串口写入失败: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("串口写入不完整: %d/%d 字节", n, len(p))
	}
	return nil
}

// ReadFull 读满整个缓冲区;单次读返回 0 字节视为超时
func (s *Serial) ReadFull(p []byte) error {
	if s.port == nil {
		return protocol.ErrPortNotOpen
	}

	off := 0
	for off < len(p) {
		n, err := s.port.Read(p[off:])
		if err != nil {
			return fmt.Errorf("串口读取失败: %w", err)
		}
		if n == 0 {
			// go.bug.st/serial 超时时返回 (0, nil)
			return protocol.ErrReadTimeout
		}
		off += n
	}
	return nil
}

// ReadByte 读取一个字节
func (s *Serial) ReadByte() (byte, error) {
	var b [1]byte
	if err := s.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadTimeout 返回当前配置的读超时
func (s *Serial) ReadTimeout() time.Duration {
	return s.timeout
}

// SetReadTimeout 修改读超时;NoTimeout 表示无限阻塞
func (s *Serial) SetReadTimeout(d time.Duration) error {
	if s.port == nil {
		return protocol.ErrPortNotOpen
	}

	t := d
	if d < 0 {
		t = serial.NoTimeout
	}
	if err := s.port.SetReadTimeout(t); err != nil {
		return fmt.Errorf("设置读超时失败: %w", err)
	}
	s.timeout = d
	return nil
}

// SetBaud 切换本地波特率,数据位/校验/停止位保持 8N1
func (s *Serial) SetBaud(baud int) error {
	if s.port == nil {
		return protocol.ErrPortNotOpen
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := s.port.SetMode(mode); err != nil {
		return fmt.Errorf("切换波特率失败 (%d): %w", baud, err)
	}

	s.log.Debugf("本地波特率已切换: %d", baud)
	return nil
}

// Close 关闭串口;重复关闭为空操作
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return fmt.Errorf("关闭串口失败: %w", err)
	}
	s.log.Infof("串口已关闭: %s", s.device)
	return nil
}
