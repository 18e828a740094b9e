// Package dhash 实现按行梯度的差值哈希 (dHash)
//
// 算法：ITU-R 601-2 灰度 -> Lanczos3 缩放到 (n+1) x n -> 相邻像素比较 -> n^2 bit。
// 二进制形式为 "0b" + n^2 位，十六进制形式为 "0x" + 小写十六进制。
// 这不是密码学哈希，相似图片距离小、发生碰撞都是预期行为。
package dhash

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"io/fs"
	"os"
)

// DefaultSize 默认高度 8，得到 64 bit 哈希
const DefaultSize = 8

// Hasher 持有哈希尺寸配置，本身无状态，可并发使用
type Hasher struct {
	size int
}

// NewHasher 创建指定尺寸的 Hasher
func NewHasher(size int) (*Hasher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashSize, size)
	}
	return &Hasher{size: size}, nil
}

// Size 返回 n
func (h *Hasher) Size() int { return h.size }

// HashFile 读取并解码路径上的图片
func (h *Hasher) HashFile(path string) (*Hash, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: no image file found at '%s'", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return h.HashReader(f, path)
}

// HashReader 从流中解码图片并计算哈希
func (h *Hasher) HashReader(r io.Reader, source string) (*Hash, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, source, err)
	}
	return h.HashImage(img, source)
}

// HashBytes 是 HashReader 的便捷形式
func (h *Hasher) HashBytes(data []byte, source string) (*Hash, error) {
	return h.HashReader(bytes.NewReader(data), source)
}

// HashImage 对已解码的图片计算哈希
func (h *Hasher) HashImage(img image.Image, source string) (*Hash, error) {
	// 1. 灰度 + 缩放
	grid, err := Prepare(img, h.size)
	if err != nil {
		return nil, err
	}

	// 2. 梯度 bit
	bits, err := GradientBits(grid, h.size)
	if err != nil {
		return nil, err
	}

	return FromBits(bits, h.size, source)
}

// Hash 是不可变的 dHash 值
type Hash struct {
	source string
	size   int
	bits   []bool
	binary string
	hex    string
}

// FromBits 由 bit 序列构造 Hash，bit 数必须等于 size^2
func FromBits(bits []bool, size int, source string) (*Hash, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashSize, size)
	}
	if len(bits) != size*size {
		return nil, fmt.Errorf("%w: got %d bits, want %d", ErrLengthMismatch, len(bits), size*size)
	}

	owned := make([]bool, len(bits))
	copy(owned, bits)

	bin := EncodeBinary(owned)
	hex, err := BinToHex(bin)
	if err != nil {
		return nil, err
	}
	return &Hash{source: source, size: size, bits: owned, binary: bin, hex: hex}, nil
}

// ParseHash 从已有的二进制或十六进制字符串构造 Hash
func ParseHash(s string, size int) (*Hash, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashSize, size)
	}
	t, err := ParseTarget(s)
	if err != nil {
		return nil, err
	}

	var bin string
	switch v := t.(type) {
	case HexString:
		bin, err = ParseHex(string(v), size*size)
	case BinaryString:
		bin, err = ParseBinary(string(v), size*size)
	}
	if err != nil {
		return nil, err
	}
	return FromBits(decodeBits(bin), size, "")
}

func (h *Hash) Source() string { return h.source }
func (h *Hash) Size() int      { return h.size }
func (h *Hash) Width() int     { return h.size + 1 }
func (h *Hash) Height() int    { return h.size }
func (h *Hash) BitCount() int  { return h.size * h.size }
func (h *Hash) Binary() string { return h.binary }
func (h *Hash) Hex() string    { return h.hex }

// Len 是二进制形式的长度 (含前缀)，即 n^2 + 2
func (h *Hash) Len() int { return len(h.binary) }

// Bits 返回 bit 序列的副本
func (h *Hash) Bits() []bool {
	out := make([]bool, len(h.bits))
	copy(out, h.bits)
	return out
}

func (h *Hash) String() string { return h.binary }

func (h *Hash) GoString() string {
	return fmt.Sprintf("DHash(hash=%s, hash_hex=%s, path=%s)", h.binary, h.hex, h.source)
}
