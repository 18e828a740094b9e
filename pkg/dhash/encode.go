package dhash

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	BinaryPrefix = "0b"
	HexPrefix    = "0x"
)

// hasPrefix 大小写不敏感地检查前缀 ("0B" / "0X" 同样接受)
func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// EncodeBinary 把 bit 序列编码为 "0b" + n 个 '0'/'1'
func EncodeBinary(bits []bool) string {
	var sb strings.Builder
	sb.Grow(len(BinaryPrefix) + len(bits))
	sb.WriteString(BinaryPrefix)
	for _, b := range bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseBinary 校验并规范化二进制形式
// expectedBits > 0 时要求位数严格相等
func ParseBinary(s string, expectedBits int) (string, error) {
	if !hasPrefix(s, BinaryPrefix) {
		return "", fmt.Errorf("%w: binary string must start with %q", ErrFormat, BinaryPrefix)
	}
	digits := s[len(BinaryPrefix):]
	if digits == "" {
		return "", fmt.Errorf("%w: binary string has no digits", ErrFormat)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] != '0' && digits[i] != '1' {
			return "", fmt.Errorf("%w: invalid binary digit %q", ErrFormat, digits[i])
		}
	}
	if expectedBits > 0 && len(digits) != expectedBits {
		return "", fmt.Errorf("%w: got %d bits, want %d", ErrLengthMismatch, len(digits), expectedBits)
	}
	return BinaryPrefix + digits, nil
}

// BinToHex 把二进制形式转换为十六进制形式
// 十六进制是紧凑的展示形式，前导 0 会被丢弃，解码时必须提供位数
func BinToHex(bin string) (string, error) {
	normalized, err := ParseBinary(bin, 0)
	if err != nil {
		return "", err
	}
	n, ok := new(big.Int).SetString(normalized[len(BinaryPrefix):], 2)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrFormat, bin)
	}
	return HexPrefix + n.Text(16), nil
}

// ParseHex 把十六进制形式展开为二进制形式，并左侧补 0 到 expectedBits 位
// 单独的十六进制串无法推断原始位数，这是固有限制，调用方必须提供位数
func ParseHex(s string, expectedBits int) (string, error) {
	if expectedBits <= 0 {
		return "", fmt.Errorf("%w: expected bit count must be positive, got %d", ErrLengthMismatch, expectedBits)
	}
	if !hasPrefix(s, HexPrefix) {
		return "", fmt.Errorf("%w: hex string must start with %q", ErrFormat, HexPrefix)
	}
	digits := s[len(HexPrefix):]
	if digits == "" {
		return "", fmt.Errorf("%w: hex string has no digits", ErrFormat)
	}
	// SetString 会接受 "+" / "-" / "_"，必须逐位校验
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return "", fmt.Errorf("%w: invalid hex digit %q", ErrFormat, digits[i])
		}
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return "", fmt.Errorf("%w: invalid hex digits %q", ErrFormat, digits)
	}

	bin := n.Text(2)
	if len(bin) > expectedBits {
		// 绝不静默截断
		return "", fmt.Errorf("%w: value needs %d bits, want %d", ErrLengthMismatch, len(bin), expectedBits)
	}
	return BinaryPrefix + strings.Repeat("0", expectedBits-len(bin)) + bin, nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// decodeBits 把已校验的二进制形式还原为 bit 序列
func decodeBits(bin string) []bool {
	digits := bin[len(BinaryPrefix):]
	bits := make([]bool, len(digits))
	for i := 0; i < len(digits); i++ {
		bits[i] = digits[i] == '1'
	}
	return bits
}
