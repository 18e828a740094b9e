// pkg/types/common.go
package types

import "fmt"

// Hash 代表对象的唯一标识符 (SHA256 Hex String)
// 这是一个“值对象”，应当是不可变的。
type Hash string

func (h Hash) String() string { return string(h) }

// 验证 Hash 合法性
func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 } // 简单的长度检查

// Short 返回前 8 位，用于终端展示
func (h Hash) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

// HashSize 是 dHash 的网格高度 n
// 缩放后宽 n+1、高 n，共 n^2 bit
type HashSize int

func (s HashSize) Valid() bool { return s > 0 }
func (s HashSize) Width() int  { return int(s) + 1 }
func (s HashSize) Height() int { return int(s) }
func (s HashSize) Bits() int   { return int(s) * int(s) }

func (s HashSize) String() string { return fmt.Sprintf("%dx%d", s.Width(), s.Height()) }
