package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"空载荷", nil, 0},
		{"单字节", []byte{0x7f}, 0x7f},
		{"模 256 溢出", []byte{200, 200}, 144},
		{"整屏零载荷", make([]byte, DefaultPayloadLen), 0},
	}
	for _, tt := range tests {
		if got := Checksum(tt.data); got != tt.want {
			t.Errorf("%s: Checksum = %d, 期望 %d", tt.name, got, tt.want)
		}
	}
}

func TestEncodeBinblock(t *testing.T) {
	if got := EncodeBinblock([]byte("abc")); !bytes.Equal(got, []byte("#13abc")) {
		t.Errorf("EncodeBinblock = %q", got)
	}

	data := bytes.Repeat([]byte{0x55}, 7454)
	got := EncodeBinblock(data)
	if !bytes.HasPrefix(got, []byte("#47454")) {
		t.Errorf("块头错误: %q", got[:8])
	}
	if len(got) != 6+7454 {
		t.Errorf("块长度错误: %d", len(got))
	}
}

func TestStatusBitsDescribe(t *testing.T) {
	// 515 = bit0 + bit1 + bit9
	s := StatusBits(515)
	if !s.Has(0) || !s.Has(1) || !s.Has(9) || s.Has(2) {
		t.Error("位判断错误")
	}
	got := s.Describe()
	want := []string{"Hardware settled", "Acquisition armed", "Hold mode active"}
	if len(got) != len(want) {
		t.Fatalf("Describe = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Describe[%d] = %q, 期望 %q", i, got[i], want[i])
		}
	}

	if out := StatusBits(0).Describe(); len(out) != 0 {
		t.Errorf("零状态不应有描述: %v", out)
	}
}

func TestIdentitySCPI(t *testing.T) {
	r := &IdentityRecord{Model: "FLUKE 105", Firmware: "V5.00"}
	if got := r.SCPI(); got != "FLUKE,FLUKE 105,-,V5.00" {
		t.Errorf("SCPI = %q", got)
	}
}

func TestErrorTypes(t *testing.T) {
	err := Protocolf("字段数不符: %d", 5)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatal("Protocolf 应返回 *ProtocolError")
	}

	aerr := &AckError{Code: AckExecError}
	if aerr.Code.String() != "命令执行错误" {
		t.Errorf("应答码描述错误: %s", aerr.Code)
	}
	if AckCode(9).String() == "" {
		t.Error("未知应答码应有描述")
	}
}
