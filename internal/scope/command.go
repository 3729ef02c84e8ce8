package scope

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// Transport 串口传输抽象,由 transport.Serial 实现;测试中注入脚本化实现
type Transport interface {
	Write(p []byte) error
	ReadFull(p []byte) error
	ReadByte() (byte, error)
	ReadTimeout() time.Duration
	SetReadTimeout(d time.Duration) error
	SetBaud(baud int) error
	Close() error
}

// noTimeout 传给 Transport.SetReadTimeout 表示无限阻塞
const noTimeout time.Duration = -1

// Command 命令通道:发送 ASCII 命令并解析两字节应答 <code><CR>
type Command struct {
	tr  Transport
	log *logrus.Logger
}

func NewCommand(tr Transport, log *logrus.Logger) *Command {
	return &Command{tr: tr, log: log}
}

// Send 发送命令;应答超时、格式错误或非零应答码一律返回错误
func (c *Command) Send(cmd string) error {
	ok, err := c.send(cmd)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Warnf("命令 %q 应答超时", cmd)
		return protocol.ErrAckTimeout
	}
	return nil
}

// SendSoft 软发送:应答超时返回 (false, nil) 而不报错。
// 仅用于波特率引导的第一步,设备可能已处于高波特率而不响应。
// 其他错误 (格式错误、非零应答码) 仍然返回错误。
func (c *Command) SendSoft(cmd string) (bool, error) {
	return c.send(cmd)
}

func (c *Command) send(cmd string) (bool, error) {
	data := make([]byte, 0, len(cmd)+1)
	data = append(data, cmd...)
	data = append(data, protocol.Terminator)

	if err := c.tr.Write(data); err != nil {
		return false, err
	}

	ack := make([]byte, protocol.AckLength)
	if err := c.tr.ReadFull(ack); err != nil {
		if errors.Is(err, protocol.ErrReadTimeout) {
			c.log.Debugf("命令 %q 未收到应答", cmd)
			return false, nil
		}
		return false, err
	}

	// 第二字节必须是结束符,否则认为链路已失步
	if ack[1] != protocol.Terminator {
		return false, protocol.Protocolf("应答缺少结束符: % x (命令 %q)", ack, cmd)
	}
	if ack[0] < '0' || ack[0] > '9' {
		return false, protocol.Protocolf("未知应答码: 0x%02x (命令 %q)", ack[0], cmd)
	}

	code := protocol.AckCode(ack[0] - '0')
	if code == protocol.AckOK {
		return true, nil
	}

	c.log.Warnf("命令 %q 应答错误: %s", cmd, code)
	return false, &protocol.AckError{Code: code}
}
