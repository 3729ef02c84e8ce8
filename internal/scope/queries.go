package scope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// readLine 逐字节读取 ASCII 数据直到结束符。
// 中途超时一律致命:这类响应长度不定,无法安全地从半途重试。
// 超时原样上报 ErrReadTimeout,ErrAckTimeout 只属于应答阶段。
func (s *Session) readLine() (string, error) {
	var buf []byte
	for {
		b, err := s.tr.ReadByte()
		if err != nil {
			if errors.Is(err, protocol.ErrReadTimeout) {
				s.log.Warn("接收数据超时")
			}
			return "", err
		}
		if b == protocol.Terminator {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// Identity 查询仪器身份 (ID):分号分隔的 6 个字段
func (s *Session) Identity() (*protocol.IdentityRecord, error) {
	s.log.Info("查询仪器身份...")

	if err := s.cmd.Send("ID"); err != nil {
		return nil, err
	}

	line, err := s.readLine()
	if err != nil {
		return nil, err
	}

	parts := strings.Split(line, ";")
	if len(parts) != 6 {
		// Fluke 105 固定返回 6 个字段
		return nil, protocol.Protocolf("身份字段数异常: %d (%q)", len(parts), line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	rec := &protocol.IdentityRecord{
		Model:    parts[0],
		Firmware: parts[1],
		Date:     parts[2],
		Extra:    parts[3:],
	}

	s.log.Infof("型号: %s, 固件: %s", rec.Model, rec.Firmware)
	return rec, nil
}

// Status 查询状态位字段 (IS)
func (s *Session) Status() (protocol.StatusBits, error) {
	s.log.Info("查询仪器状态...")

	if err := s.cmd.Send("IS"); err != nil {
		return 0, err
	}

	line, err := s.readLine()
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, protocol.Protocolf("状态字段不是十进制数: %q", line)
	}

	status := protocol.StatusBits(v)
	for _, text := range status.Describe() {
		s.log.Debugf("状态位: %s", text)
	}
	return status, nil
}

// Measurement 查询完整测量读数 (QM<n>):类型、数值、单位
func (s *Session) Measurement(field int) (*protocol.MeasurementReading, error) {
	if field < protocol.MeterFieldMin || field > protocol.MeterFieldMax {
		return nil, fmt.Errorf("测量通道超出范围: %d (允许 %d..%d)",
			field, protocol.MeterFieldMin, protocol.MeterFieldMax)
	}

	if err := s.cmd.Send(fmt.Sprintf("QM%d", field)); err != nil {
		return nil, err
	}

	line, err := s.readLine()
	if err != nil {
		return nil, err
	}

	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return nil, protocol.Protocolf("测量响应字段数异常: %q", line)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, protocol.Protocolf("测量数值解析失败: %q", line)
	}

	return &protocol.MeasurementReading{
		Type:  strings.TrimSpace(parts[0]),
		Value: value,
		Unit:  strings.TrimSpace(parts[2]),
	}, nil
}

// MeasurementValue 纯数值模式测量 (QM<n>,V)
func (s *Session) MeasurementValue(field int) (float64, error) {
	if field < protocol.MeterFieldMin || field > protocol.MeterFieldMax {
		return 0, fmt.Errorf("测量通道超出范围: %d (允许 %d..%d)",
			field, protocol.MeterFieldMin, protocol.MeterFieldMax)
	}

	if err := s.cmd.Send(fmt.Sprintf("QM%d,V", field)); err != nil {
		return 0, err
	}

	line, err := s.readLine()
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, protocol.Protocolf("测量数值解析失败: %q", line)
	}
	return value, nil
}
