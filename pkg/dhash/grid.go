package dhash

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// Filter 是缩放使用的插值核
// 换核会改变每一个 bit，跨实现比较哈希时必须保持一致
const Filter = resize.Lanczos3

// PixelGrid 是缩放后的灰度网格，按行优先存储
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// At 返回第 r 行第 c 列的亮度
func (g PixelGrid) At(r, c int) uint8 {
	return g.Pix[r*g.Width+c]
}

// Luma 使用 ITU-R 601-2 权重计算亮度，四舍五入到整数
func Luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*299 + uint32(g)*587 + uint32(b)*114 + 500) / 1000)
}

// Grayscale 把任意图像转换为 8 位灰度图
// 注意：使用非预乘的通道值，Alpha 通道被忽略
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			gray.SetGray(x, y, color.Gray{Y: Luma(c.R, c.G, c.B)})
		}
	}
	return gray
}

// Prepare 先灰度、后缩放，得到 (n+1) x n 的网格
// 顺序不可交换：先缩放彩色通道再取亮度会得到不同的结果
func Prepare(img image.Image, size int) (PixelGrid, error) {
	if size <= 0 {
		return PixelGrid{}, fmt.Errorf("%w: %d", ErrInvalidHashSize, size)
	}
	width, height := size+1, size

	gray := Grayscale(img)
	resized := resize.Resize(uint(width), uint(height), gray, Filter)

	grid := PixelGrid{Width: width, Height: height, Pix: make([]uint8, 0, width*height)}
	b := resized.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			grid.Pix = append(grid.Pix, color.GrayModel.Convert(resized.At(x, y)).(color.Gray).Y)
		}
	}
	return grid, nil
}

// GradientBits 按行比较相邻像素
// bit = 1 当右侧像素严格更亮 (cur < next)，否则为 0 (相等时为 0)
// 每行最后一列没有右邻居，不产生 bit
func GradientBits(grid PixelGrid, size int) ([]bool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashSize, size)
	}
	if grid.Width != size+1 || grid.Height != size || len(grid.Pix) != size*(size+1) {
		return nil, fmt.Errorf("%w: got %dx%d (%d pixels), want %dx%d",
			ErrInvalidGridSize, grid.Width, grid.Height, len(grid.Pix), size+1, size)
	}

	bits := make([]bool, 0, size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			bits = append(bits, grid.At(r, c) < grid.At(r, c+1))
		}
	}
	return bits, nil
}
