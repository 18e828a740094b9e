package core

import "dhashvault/pkg/types"

// ObjectType 定义了仓库中的对象类型
type ObjectType string

const (
	TypeRecord ObjectType = "record" // 一张图片在某个 HashSize 下的指纹
)

// Object 是所有可持久化对象的通用接口
type Object interface {
	// Type 返回对象类型
	Type() ObjectType

	// ID 返回对象的哈希值 (规范编码的 SHA-256)
	ID() types.Hash

	// Bytes 返回对象的序列化数据 (用于存储)
	Bytes() []byte
}
