package dhash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 辅助工具：合成测试图片，避免依赖网络资源
// -----------------------------------------------------------------------------

type pattern func(x, y, w, h int) color.Color

// peak 中间最亮、两侧渐暗的三角波，只依赖 x
func peak(x, _, w, _ int) color.Color {
	u := (float64(x) + 0.5) / float64(w)
	d := 2*u - 1
	if d < 0 {
		d = -d
	}
	v := uint8(255 * (1 - d))
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// rampUp 从左到右变亮
func rampUp(x, _, w, _ int) color.Color {
	v := uint8(255 * x / (w - 1))
	return color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255}
}

// rampDown 从左到右变暗
func rampDown(x, y, w, h int) color.Color {
	return rampUp(w-1-x, y, w, h)
}

func checkerboard(x, y, _, _ int) color.Color {
	if (x/16+y/16)%2 == 0 {
		return color.White
	}
	return color.Black
}

func render(w, h int, p pattern) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, p(x, y, w, h))
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// writeImage 把合成图片写入临时目录并返回路径
func writeImage(t *testing.T, name string, w, h int, p pattern) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, encodePNG(t, render(w, h, p)), 0644))
	return path
}

func mustHasher(t *testing.T, size int) *Hasher {
	t.Helper()
	h, err := NewHasher(size)
	require.NoError(t, err)
	return h
}

func mustFromBits(t *testing.T, bits []bool, size int) *Hash {
	t.Helper()
	h, err := FromBits(bits, size, "")
	require.NoError(t, err)
	return h
}

func bitsOf(s string) []bool {
	bits := make([]bool, len(s))
	for i := range s {
		bits[i] = s[i] == '1'
	}
	return bits
}
