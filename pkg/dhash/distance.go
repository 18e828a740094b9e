package dhash

import (
	"fmt"
	"strings"
)

// Target 是比较操作可接受的输入 (tagged union)
// 只有 *Hash、BinaryString、HexString 三种实现，包外无法扩展
type Target interface {
	isTarget()
}

// BinaryString 是带 "0b" 前缀的二进制哈希
type BinaryString string

// HexString 是带 "0x" 前缀的十六进制哈希
type HexString string

func (*Hash) isTarget()        {}
func (BinaryString) isTarget() {}
func (HexString) isTarget()    {}

// ParseTarget 根据前缀把字符串解析为 Target
func ParseTarget(s string) (Target, error) {
	switch {
	case hasPrefix(s, HexPrefix):
		return HexString(s), nil
	case hasPrefix(s, BinaryPrefix):
		return BinaryString(s), nil
	default:
		return nil, fmt.Errorf("%w: hash string must start with %q or %q", ErrFormat, HexPrefix, BinaryPrefix)
	}
}

// TargetOf 是动态输入的边界检查
// nil -> ErrNullComparisonTarget，其他非字符串、非 Target 类型 -> ErrUnsupportedComparisonType
func TargetOf(v any) (Target, error) {
	switch t := v.(type) {
	case nil:
		return nil, ErrNullComparisonTarget
	case *Hash:
		if t == nil {
			return nil, ErrNullComparisonTarget
		}
		return t, nil
	case Target:
		return t, nil
	case string:
		return ParseTarget(t)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedComparisonType, v)
	}
}

// HammingDistance 计算两个二进制字符串的汉明距离
// 若带 "0b" 前缀则先去掉；长度不等时汉明距离无定义，直接报错
func HammingDistance(a, b string) (int, error) {
	a, b = stripBinaryPrefix(a), stripBinaryPrefix(b)
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d digits", ErrLengthMismatch, len(a), len(b))
	}
	dist := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist, nil
}

// HammingBits 计算两个 bit 序列的汉明距离
func HammingBits(a, b []bool) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d bits", ErrLengthMismatch, len(a), len(b))
	}
	dist := 0
	for i := range a {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist, nil
}

func stripBinaryPrefix(s string) string {
	if hasPrefix(s, BinaryPrefix) {
		return s[len(BinaryPrefix):]
	}
	return s
}

// DistanceTo 返回与目标之间的汉明距离
func (h *Hash) DistanceTo(t Target) (int, error) {
	switch v := t.(type) {
	case nil:
		return 0, ErrNullComparisonTarget
	case *Hash:
		if v == nil {
			return 0, ErrNullComparisonTarget
		}
		if v.size != h.size {
			return 0, fmt.Errorf("%w: cannot compare %d-bit hash with %d-bit hash", ErrLengthMismatch, h.BitCount(), v.BitCount())
		}
		return HammingBits(h.bits, v.bits)
	case BinaryString:
		s := string(v)
		if !hasPrefix(s, BinaryPrefix) {
			return 0, fmt.Errorf("%w: binary string must start with %q", ErrFormat, BinaryPrefix)
		}
		if len(s) != len(h.binary) {
			return 0, fmt.Errorf("%w: you must supply a %d bits hash", ErrLengthMismatch, h.BitCount())
		}
		bin, err := ParseBinary(strings.ToLower(s), h.BitCount())
		if err != nil {
			return 0, err
		}
		return HammingDistance(h.binary, bin)
	case HexString:
		bin, err := ParseHex(string(v), h.BitCount())
		if err != nil {
			return 0, err
		}
		return HammingDistance(h.binary, bin)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedComparisonType, t)
	}
}

// Distance 接受任意值，先经过 TargetOf 再计算距离
func (h *Hash) Distance(v any) (int, error) {
	t, err := TargetOf(v)
	if err != nil {
		return 0, err
	}
	return h.DistanceTo(t)
}

// Equals 当且仅当汉明距离为 0
func (h *Hash) Equals(t Target) (bool, error) {
	d, err := h.DistanceTo(t)
	if err != nil {
		return false, err
	}
	return d == 0, nil
}

// NotEquals 是 Equals 的反面，错误原样返回
func (h *Hash) NotEquals(t Target) (bool, error) {
	eq, err := h.Equals(t)
	if err != nil {
		return false, err
	}
	return !eq, nil
}
