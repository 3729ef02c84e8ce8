// 生成合成的 EPSON 图形流,供解码器离线调试与 PrintSync 测试使用。
// 图案为对角线 + 十字,与经典的串口抓屏测试图一致。
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

func main() {
	out := flag.String("o", "", "输出文件 (默认打印十六进制)")
	framed := flag.Bool("framed", false, "包装成完整帧: 4位长度 + ',' + 载荷 + 校验和")
	flag.Parse()

	payload := encodeStream(testPattern())

	if *framed {
		frame := make([]byte, 0, len(payload)+6)
		frame = append(frame, fmt.Sprintf("%04d,", len(payload))...)
		frame = append(frame, payload...)
		frame = append(frame, protocol.Checksum(payload))
		payload = frame
	}

	if *out != "" {
		if err := os.WriteFile(*out, payload, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "写文件失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("已生成 %d 字节: %s\n", len(payload), *out)
		return
	}

	// 十六进制输出,每行32字节
	for i := 0; i < len(payload); i += 32 {
		end := i + 32
		if end > len(payload) {
			end = len(payload)
		}
		fmt.Printf("% x\n", payload[i:end])
	}
}

// testPattern 对角线 + 十字测试图
func testPattern() [][]bool {
	grid := make([][]bool, protocol.ScreenWidth)
	for x := range grid {
		grid[x] = make([]bool, protocol.ScreenHeight)
	}
	for i := 0; i < 240; i++ {
		grid[i][i] = true
		grid[i][119] = true
		grid[119][i] = true
		grid[239-i][i] = true
	}
	return grid
}

// encodeStream 把像素网格编码成解码器认识的 EPSON 流:
// 每个行组前一个 CR (行组计数 +1),然后 ESC '*' m n_lo n_hi 和 240 个数据字节。
// 行组 line 的数据字节 bit j 对应行 line*8-j。
func encodeStream(grid [][]bool) []byte {
	var out []byte
	for line := 1; line <= 30; line++ {
		out = append(out, 0x0d, 0x1b, 0x2a, 0x00,
			byte(protocol.ScreenWidth%256), byte(protocol.ScreenWidth/256))
		for x := 0; x < protocol.ScreenWidth; x++ {
			var b byte
			for j := 0; j < 8; j++ {
				row := line*8 - j
				if row < protocol.ScreenHeight && grid[x][row] {
					b |= 1 << j
				}
			}
			out = append(out, b)
		}
	}
	return out
}
