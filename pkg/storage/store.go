package storage

import (
	"context"
	"errors"
	"io"

	"dhashvault/pkg/core"
	"dhashvault/pkg/types"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrAmbiguousHash  = errors.New("ambiguous hash prefix")
	ErrPrefixTooShort = errors.New("hash prefix too short")
)

// MinPrefixLen 是短哈希展开的最小长度
const MinPrefixLen = 4

// Store defines the interface for a record storage backend.
// Implementations can be local disk or S3-compatible object storage,
// optionally decorated with a Redis existence cache.
type Store interface {
	// Put 将一个对象持久化 (幂等：已存在则跳过)
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始数据
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	// Has 检查对象是否存在 (用于去重逻辑)
	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash 把短哈希展开为完整哈希
	ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error)
}

// ReadRecord 读取并解码一条 Record
func ReadRecord(ctx context.Context, s Store, hash types.Hash) (*core.Record, error) {
	rc, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return core.DecodeRecord(data)
}
