package scope

import (
	"bytes"
	"testing"
	"time"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// buildFrame 组装一次 QP 传输的完整字节流:ACK + 4位长度 + ',' + 载荷 + 校验和
func buildFrame(payload []byte, sum byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("0\r")
	buf.WriteString(lenHeader(len(payload)))
	buf.WriteByte(',')
	buf.Write(payload)
	buf.WriteByte(sum)
	return buf.Bytes()
}

func lenHeader(n int) string {
	digits := []byte{'0', '0', '0', '0'}
	for i := 3; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}

func TestScreenshot(t *testing.T) {
	payload := []byte{1, 2, 3}
	tr := newFakeTransport(buildFrame(payload, 6))
	s := NewSession(tr, testLogger())

	got, info, err := s.Screenshot()
	if err != nil {
		t.Fatalf("抓屏失败: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("载荷错误: % x", got)
	}
	if info.Declared != 3 || info.Received != 3 || !info.ChecksumOK {
		t.Errorf("帧信息错误: %+v", info)
	}
	if w := tr.writes.String(); w != "QP\r" {
		t.Errorf("写入命令错误: %q", w)
	}
}

func TestScreenshotTimeoutScoping(t *testing.T) {
	tr := newFakeTransport(buildFrame([]byte{0}, 0))
	s := NewSession(tr, testLogger())

	if _, _, err := s.Screenshot(); err != nil {
		t.Fatalf("抓屏失败: %v", err)
	}

	// 传输期间置为无限阻塞,结束后恢复原值
	if len(tr.timeouts) != 2 || tr.timeouts[0] >= 0 || tr.timeouts[1] != time.Second {
		t.Errorf("读超时切换记录错误: %v", tr.timeouts)
	}
}

func TestScreenshotHeaderFallback(t *testing.T) {
	// 长度头不可解析时回退到固定长度 7454,分隔符照常消费
	payload := make([]byte, protocol.DefaultPayloadLen)
	var buf bytes.Buffer
	buf.WriteString("0\r")
	buf.WriteString("00AB")
	buf.WriteByte(',')
	buf.Write(payload)
	buf.WriteByte(0)

	tr := newFakeTransport(buf.Bytes())
	s := NewSession(tr, testLogger())

	got, info, err := s.Screenshot()
	if err != nil {
		t.Fatalf("抓屏失败: %v", err)
	}
	if info.Declared != protocol.DefaultPayloadLen || len(got) != protocol.DefaultPayloadLen {
		t.Errorf("回退长度错误: %+v", info)
	}
	if !info.ChecksumOK {
		t.Error("全零载荷的校验和应为 0")
	}
}

func TestScreenshotChecksumMismatchIsSoft(t *testing.T) {
	payload := []byte{10, 20, 30}
	tr := newFakeTransport(buildFrame(payload, 99)) // 正确值是 60
	s := NewSession(tr, testLogger())

	got, info, err := s.Screenshot()
	if err != nil {
		t.Fatalf("校验和不匹配不应失败: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("数据仍应返回: % x", got)
	}
	if info.ChecksumOK || info.DeviceSum != 99 || info.LocalSum != 60 {
		t.Errorf("帧信息错误: %+v", info)
	}
}
