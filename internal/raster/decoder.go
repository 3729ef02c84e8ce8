package raster

import (
	"image"
	"image/color"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// EPSON 图形流控制字节
const (
	esc  = 0x1b // 引导 4 字节头: '*' m n_lo n_hi
	star = 0x2a
	cr   = 0x0d // 扫描态下行组计数 +1
)

// 解码器两状态机:扫描态 / 位图态 (带剩余数据长度)
type mode int

const (
	modeScan mode = iota
	modeBit
)

// Decode 将设备的 EPSON 位打包图形流解码为 240x240 位图。
// 纯变换,无 I/O。
//
// 扫描态:ESC '*' 后跟 1 字节模式选择 (忽略) 和小端 16 位数据长度,
// 进入位图态并把横坐标复位;CR 使行组计数 +1。
// 位图态:每个数据字节从 bit0 到 bit7 检查,置位 j 对应像素
// (x, line*8-j);仅 0 < line < 31 且行号 < 240 时落入有效区,
// 其余是仪器的非活动边缘,静默丢弃。每消费一个数据字节横坐标 +1,
// 剩余长度减到 0 回到扫描态。
func Decode(prn []byte, fg, bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, protocol.ScreenWidth, protocol.ScreenHeight))
	for y := 0; y < protocol.ScreenHeight; y++ {
		for x := 0; x < protocol.ScreenWidth; x++ {
			img.SetRGBA(x, y, bg)
		}
	}

	state := modeScan
	run := 0  // 位图态剩余数据字节数
	line := 0 // 行组计数,每组 8 行
	x := 0

	i := 0
	for i < len(prn) {
		if state == modeScan {
			switch prn[i] {
			case esc:
				if i+4 < len(prn) && prn[i+1] == star {
					// ESC '*' m n_lo n_hi,m 为模式选择字节,此处不用
					run = int(prn[i+3]) + int(prn[i+4])*256
					x = 0
					i += 5
					if run > 0 {
						state = modeBit
					}
				} else {
					// 头不完整或不是 '*',跳过 ESC 及后随字节
					i += 2
				}
			case cr:
				line++
				i++
			default:
				i++
			}
			continue
		}

		c := prn[i]
		for j := 0; j < 8; j++ {
			if c&(1<<j) != 0 {
				row := line*8 - j
				if line > 0 && line < 31 && row < protocol.ScreenHeight && x < protocol.ScreenWidth {
					img.SetRGBA(x, row, fg)
				}
			}
		}
		x++
		run--
		if run == 0 {
			state = modeScan
		}
		i++
	}

	return img
}
