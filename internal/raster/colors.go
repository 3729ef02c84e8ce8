package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor 解析 '#rrggbb' 或 '0xRRGGBB' 颜色。
// 短输入 (长度 < 6) 按半字节补零,如 'abc' -> 'a0b0c0'。
func ParseHexColor(s string) (color.RGBA, error) {
	h := s
	if strings.HasPrefix(h, "#") {
		h = h[1:]
	} else if len(h) >= 2 && strings.EqualFold(h[:2], "0x") {
		h = h[2:]
	}

	if len(h) < 6 {
		if len(h) < 3 {
			return color.RGBA{}, fmt.Errorf("颜色格式无效: %q", s)
		}
		h = string([]byte{h[0], '0', h[1], '0', h[2], '0'})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("颜色格式无效: %q", s)
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("颜色格式无效: %q", s)
		}
		rgb[i] = uint8(v)
	}

	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}, nil
}
