package raster

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestEncodePNG(t *testing.T) {
	img := Decode([]byte{0x0d, 0x1b, 0x2a, 0x00, 0x01, 0x00, 0x01}, fg, bg)

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("PNG 编码失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("PNG 魔数错误: % x", data[:8])
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PNG 回读失败: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 240, 240) {
		t.Errorf("尺寸错误: %v", decoded.Bounds())
	}
}
