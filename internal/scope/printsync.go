package scope

import (
	"strconv"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// WaitPrint 被动等待设备主动发起的打印传输。
// 主机不发命令,在字节流中识别 "dddd," 长度标记后按 QP 同样的帧
// 结构读取载荷与校验和。标记识别必须容忍前导噪声字节。
func (s *Session) WaitPrint() ([]byte, *protocol.TransferInfo, error) {
	s.log.Info("等待打印数据流,请在 ScopeMeter 上按 PRINT...")

	old := s.tr.ReadTimeout()
	if err := s.tr.SetReadTimeout(noTimeout); err != nil {
		return nil, nil, err
	}
	defer s.tr.SetReadTimeout(old)

	declared, err := s.scanLengthMarker()
	if err != nil {
		return nil, nil, err
	}

	return s.readFramed(declared)
}

// scanLengthMarker 逐字节扫描,识别紧跟逗号的 4 位数字长度标记。
// 规则:
//   - 窗口里已有 4 个数字时再来一个数字,整个窗口清空,当前数字开新窗;
//   - 逗号且窗口正好 4 位时解析长度,只接受 [1024, 65535] 区间
//     (比 QP 更紧,用于排除噪声中的伪匹配),否则清窗继续;
//   - 其他任何字节清窗。
func (s *Session) scanLengthMarker() (int, error) {
	digits := make([]byte, 0, 4)
	for {
		b, err := s.tr.ReadByte()
		if err != nil {
			return 0, err
		}

		switch {
		case b >= '0' && b <= '9':
			if len(digits) == 4 {
				digits = digits[:0]
			}
			digits = append(digits, b)

		case b == ',' && len(digits) == 4:
			n, err := strconv.Atoi(string(digits))
			digits = digits[:0]
			if err == nil && n >= protocol.PrintMinPayloadLen && n <= protocol.MaxPayloadLen {
				s.log.Debugf("识别到长度标记: %d", n)
				return n, nil
			}

		default:
			digits = digits[:0]
		}
	}
}
