package protocol

import (
	"errors"
	"fmt"
	"time"
)

// 串口协议常量
const (
	// Terminator 所有主机命令与设备应答的结束符
	Terminator = '\r'
	// AckLength 应答长度:一个状态数字 + 结束符
	AckLength = 2

	// PowerOnBaud 设备上电后的固定波特率
	PowerOnBaud = 1200
	// TargetBaud 引导后使用的工作波特率
	TargetBaud = 19200

	// ScreenWidth / ScreenHeight 屏幕栅格尺寸 (Fluke 105)
	ScreenWidth  = 240
	ScreenHeight = 240

	// DefaultPayloadLen 实测的整屏 EPSON 数据长度,长度头异常时回退使用
	DefaultPayloadLen = 7454
	// MaxPayloadLen 长度头的上限 (4 位 ASCII 十进制)
	MaxPayloadLen = 65535
	// PrintMinPayloadLen 被动打印同步接受的长度下限,用于过滤噪声中的伪匹配
	PrintMinPayloadLen = 1024

	// MeterFieldMin / MeterFieldMax QM 命令的通道取值范围
	MeterFieldMin = 1
	MeterFieldMax = 12
)

// AckCode 设备应答码
type AckCode int

const (
	AckOK          AckCode = 0 // 正常
	AckSyntaxError AckCode = 1 // 命令语法错误
	AckExecError   AckCode = 2 // 命令执行错误
	AckSyncError   AckCode = 3 // 同步错误
	AckCommError   AckCode = 4 // 通信错误
)

func (c AckCode) String() string {
	switch c {
	case AckOK:
		return "正常"
	case AckSyntaxError:
		return "命令语法错误"
	case AckExecError:
		return "命令执行错误"
	case AckSyncError:
		return "同步错误"
	case AckCommError:
		return "通信错误"
	default:
		return fmt.Sprintf("未知错误码(%d)", int(c))
	}
}

// 传输层/协议层哨兵错误
var (
	ErrPortNotOpen = errors.New("串口未打开")
	ErrReadTimeout = errors.New("串口读取超时")
	ErrAckTimeout  = errors.New("命令应答超时")
)

// ProtocolError 协议格式错误:应答缺少结束符、字段数不符、帧结构异常等
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "协议错误: " + e.Msg
}

// Protocolf 构造带格式化消息的 ProtocolError
func Protocolf(format string, args ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

// AckError 设备返回的非零应答码
type AckError struct {
	Code AckCode
}

func (e *AckError) Error() string {
	return fmt.Sprintf("设备应答错误: %s (code=%d)", e.Code, int(e.Code))
}

// IdentityRecord 仪器自述信息,由 ID 命令返回的 6 个分号分隔字段解析而来
type IdentityRecord struct {
	Model    string   `json:"model"`
	Firmware string   `json:"firmware"`
	Date     string   `json:"date"`
	Extra    []string `json:"extra,omitempty"` // 语言等附加字段
}

// SCPI 派生 SCPI 风格的 *IDN? 字符串
func (r *IdentityRecord) SCPI() string {
	return fmt.Sprintf("FLUKE,%s,-,%s", r.Model, r.Firmware)
}

// StatusBits IS 命令返回的 10 位状态字段
type StatusBits int

var statusText = [...]string{
	"Hardware settled",
	"Acquisition armed",
	"Acquisition triggered",
	"Acquisition busy",
	"WAVEFORM A memory filled",
	"WAVEFORM B memory filled",
	"WAVEFORM A+/-B memory filled",
	"Math function ready",
	"Numeric results available",
	"Hold mode active",
}

// Has 判断某一位是否置位
func (s StatusBits) Has(bit int) bool {
	return s&(1<<bit) != 0
}

// Describe 返回所有置位位的名称,按位序排列
func (s StatusBits) Describe() []string {
	var out []string
	for pos, text := range statusText {
		if s.Has(pos) {
			out = append(out, text)
		}
	}
	return out
}

// MeasurementReading QM 命令的完整读数
type MeasurementReading struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// TransferInfo 一次屏幕数据传输的帧信息
type TransferInfo struct {
	Declared   int  // 设备声明的载荷长度
	Received   int  // 实际读取的字节数
	DeviceSum  byte // 设备发送的校验和
	LocalSum   byte // 本地计算的校验和
	ChecksumOK bool
}

// CaptureEvent 发布到消息队列的抓屏/打印事件
type CaptureEvent struct {
	Device      string    `json:"device"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"` // grab / print / scpi
	PayloadSize int       `json:"payload_size"`
	ChecksumOK  bool      `json:"checksum_ok"`
	PNGSize     int       `json:"png_size,omitempty"`
}

// MeasurementEvent 发布到消息队列的测量事件
type MeasurementEvent struct {
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
	Channel   int       `json:"channel"`
	Value     float64   `json:"value"`
	Type      string    `json:"type,omitempty"`
	Unit      string    `json:"unit,omitempty"`
}

// Checksum 设备校验和:所有载荷字节求和模 256
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// EncodeBinblock SCPI 定长二进制块编码: '#' + 长度位数 + 长度 + 原始字节
func EncodeBinblock(data []byte) []byte {
	digits := fmt.Sprintf("%d", len(data))
	out := make([]byte, 0, len(data)+len(digits)+2)
	out = append(out, '#')
	out = append(out, byte('0'+len(digits)))
	out = append(out, digits...)
	out = append(out, data...)
	return out
}
