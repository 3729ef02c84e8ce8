package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// EncodePNG 在内存中把位图编码为 PNG 字节
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("PNG 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}
