package scope

import (
	"bytes"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// fakeTransport 脚本化串口:写入被记录,读取按预置字节顺序返回,
// 读完即超时。
type fakeTransport struct {
	reads        []byte
	pos          int
	writes       bytes.Buffer
	timeout      time.Duration
	timeouts     []time.Duration // SetReadTimeout 调用记录
	bauds        []int           // SetBaud 调用记录
	timeoutReads int             // 前 N 次读取直接超时
	closed       bool
}

func newFakeTransport(reads []byte) *fakeTransport {
	return &fakeTransport{reads: reads, timeout: time.Second}
}

func (f *fakeTransport) Write(p []byte) error {
	f.writes.Write(p)
	return nil
}

func (f *fakeTransport) ReadFull(p []byte) error {
	if f.timeoutReads > 0 {
		f.timeoutReads--
		return protocol.ErrReadTimeout
	}
	if f.pos+len(p) > len(f.reads) {
		return protocol.ErrReadTimeout
	}
	copy(p, f.reads[f.pos:f.pos+len(p)])
	f.pos += len(p)
	return nil
}

func (f *fakeTransport) ReadByte() (byte, error) {
	var b [1]byte
	if err := f.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *fakeTransport) ReadTimeout() time.Duration {
	return f.timeout
}

func (f *fakeTransport) SetReadTimeout(d time.Duration) error {
	f.timeouts = append(f.timeouts, d)
	f.timeout = d
	return nil
}

func (f *fakeTransport) SetBaud(baud int) error {
	f.bauds = append(f.bauds, baud)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
