package scope

import (
	"strconv"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// Screenshot 主动抓屏 (QP):长度头 (4 位 ASCII 十进制)、分隔符、载荷、
// 1 字节校验和。传输期间读超时临时置为无限阻塞,结束后恢复。
// 校验和不匹配是软错误:记录日志并在 TransferInfo 中标出,数据照常返回。
func (s *Session) Screenshot() ([]byte, *protocol.TransferInfo, error) {
	s.log.Info("从 ScopeMeter 下载屏幕数据...")

	old := s.tr.ReadTimeout()
	if err := s.tr.SetReadTimeout(noTimeout); err != nil {
		return nil, nil, err
	}
	defer s.tr.SetReadTimeout(old)

	if err := s.cmd.Send("QP"); err != nil {
		return nil, nil, err
	}

	head := make([]byte, 4)
	if err := s.tr.ReadFull(head); err != nil {
		return nil, nil, err
	}

	declared, err := strconv.Atoi(string(head))
	if err != nil || declared < 1 || declared > protocol.MaxPayloadLen {
		// 长度头异常时回退到实测固定长度,而不是中止传输
		s.log.Warnf("长度头异常 %q,回退到固定长度 %d", head, protocol.DefaultPayloadLen)
		declared = protocol.DefaultPayloadLen
	}

	// 分隔符,不校验内容
	if _, err := s.tr.ReadByte(); err != nil {
		return nil, nil, err
	}

	return s.readFramed(declared)
}

// readFramed 读取 declared 字节载荷和 1 字节校验和,QP 与被动打印共用
func (s *Session) readFramed(declared int) ([]byte, *protocol.TransferInfo, error) {
	payload := make([]byte, declared)
	if err := s.tr.ReadFull(payload); err != nil {
		return nil, nil, err
	}

	deviceSum, err := s.tr.ReadByte()
	if err != nil {
		return nil, nil, err
	}

	localSum := protocol.Checksum(payload)
	info := &protocol.TransferInfo{
		Declared:   declared,
		Received:   len(payload),
		DeviceSum:  deviceSum,
		LocalSum:   localSum,
		ChecksumOK: deviceSum == localSum,
	}

	if !info.ChecksumOK {
		s.log.Warnf("校验和不匹配: 设备=%d 本地=%d", deviceSum, localSum)
	}

	s.log.Infof("已接收 %d 字节", len(payload))
	return payload, info, nil
}
