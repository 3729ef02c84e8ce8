package scope

import (
	"errors"
	"testing"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

const identityLine = "ScopeMeter 105 Series II;V7.15;96-02-06;English V2.15;German V2.15;X\r"

func TestIdentity(t *testing.T) {
	tr := newFakeTransport([]byte("0\r" + identityLine))
	s := NewSession(tr, testLogger())

	rec, err := s.Identity()
	if err != nil {
		t.Fatalf("身份查询失败: %v", err)
	}
	if rec.Model != "ScopeMeter 105 Series II" {
		t.Errorf("型号错误: %q", rec.Model)
	}
	if rec.Firmware != "V7.15" {
		t.Errorf("固件错误: %q", rec.Firmware)
	}
	if rec.Date != "96-02-06" {
		t.Errorf("日期错误: %q", rec.Date)
	}
	if len(rec.Extra) != 3 {
		t.Errorf("附加字段数错误: %d", len(rec.Extra))
	}
	if got := rec.SCPI(); got != "FLUKE,ScopeMeter 105 Series II,-,V7.15" {
		t.Errorf("SCPI 身份字符串错误: %q", got)
	}
}

func TestIdentityWrongFieldCount(t *testing.T) {
	for _, line := range []string{
		"a;b;c;d;e\r",     // 5 个字段
		"a;b;c;d;e;f;g\r", // 7 个字段
	} {
		tr := newFakeTransport([]byte("0\r" + line))
		s := NewSession(tr, testLogger())

		_, err := s.Identity()
		var protoErr *protocol.ProtocolError
		if !errors.As(err, &protoErr) {
			t.Errorf("%q: 期望 ProtocolError, 实际: %v", line, err)
		}
	}
}

func TestIdentityTimeoutMidLine(t *testing.T) {
	// 结束符缺失,行读取中途超时必须致命,且按读超时上报:
	// ErrAckTimeout 只属于应答阶段
	tr := newFakeTransport([]byte("0\rABC"))
	s := NewSession(tr, testLogger())

	_, err := s.Identity()
	if !errors.Is(err, protocol.ErrReadTimeout) {
		t.Fatalf("期望 ErrReadTimeout, 实际: %v", err)
	}
	if errors.Is(err, protocol.ErrAckTimeout) {
		t.Fatal("数据阶段超时不应报成应答超时")
	}
}

func TestStatus(t *testing.T) {
	// 515 = bit0 + bit1 + bit9
	tr := newFakeTransport([]byte("0\r515\r"))
	s := NewSession(tr, testLogger())

	st, err := s.Status()
	if err != nil {
		t.Fatalf("状态查询失败: %v", err)
	}
	if int(st) != 515 {
		t.Errorf("状态值错误: %d", st)
	}
	if !st.Has(0) || !st.Has(1) || !st.Has(9) || st.Has(2) {
		t.Error("状态位解析错误")
	}
	if labels := st.Describe(); len(labels) != 3 || labels[2] != "Hold mode active" {
		t.Errorf("状态位标签错误: %v", labels)
	}
}

func TestStatusNotNumeric(t *testing.T) {
	tr := newFakeTransport([]byte("0\rabc\r"))
	s := NewSession(tr, testLogger())

	_, err := s.Status()
	var protoErr *protocol.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("期望 ProtocolError, 实际: %v", err)
	}
}

func TestMeasurement(t *testing.T) {
	tr := newFakeTransport([]byte("0\rVDC, -1.234, V\r"))
	s := NewSession(tr, testLogger())

	r, err := s.Measurement(3)
	if err != nil {
		t.Fatalf("测量查询失败: %v", err)
	}
	if r.Type != "VDC" || r.Value != -1.234 || r.Unit != "V" {
		t.Errorf("读数错误: %+v", r)
	}
	if got := tr.writes.String(); got != "QM3\r" {
		t.Errorf("写入命令错误: %q", got)
	}
}

func TestMeasurementWrongArity(t *testing.T) {
	tr := newFakeTransport([]byte("0\r1.0,V\r"))
	s := NewSession(tr, testLogger())

	_, err := s.Measurement(1)
	var protoErr *protocol.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("期望 ProtocolError, 实际: %v", err)
	}
}

func TestMeasurementFieldRange(t *testing.T) {
	for _, field := range []int{0, 13, -1} {
		tr := newFakeTransport(nil)
		s := NewSession(tr, testLogger())

		if _, err := s.Measurement(field); err == nil {
			t.Errorf("通道 %d 应在发送前被拒绝", field)
		}
		if tr.writes.Len() != 0 {
			t.Errorf("通道校验失败后不应有串口写入: %q", tr.writes.String())
		}
	}
}

func TestMeasurementValue(t *testing.T) {
	tr := newFakeTransport([]byte("0\r-42.5E-3\r"))
	s := NewSession(tr, testLogger())

	v, err := s.MeasurementValue(1)
	if err != nil {
		t.Fatalf("测量查询失败: %v", err)
	}
	if v != -0.0425 {
		t.Errorf("数值错误: %g", v)
	}
	if got := tr.writes.String(); got != "QM1,V\r" {
		t.Errorf("写入命令错误: %q", got)
	}
}
