package ingester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"time"

	"dhashvault/pkg/core"
	"dhashvault/pkg/dhash"
	"dhashvault/pkg/storage"
	"dhashvault/pkg/types"

	"github.com/corona10/goimagehash"
)

// MetaStore 是 Ingester 需要的元数据写入能力 (meta.Repository 实现)
type MetaStore interface {
	SaveHash(ctx context.Context, rec *core.Record) error
	SavePath(ctx context.Context, path string, content types.Hash, sizeBytes int64, modTime time.Time) error
	DeletePath(ctx context.Context, path string) error
	PathsUnder(ctx context.Context, prefix string) ([]string, error)
}

// Result 是一次入库的产物
type Result struct {
	Record *core.Record
	Hash   *dhash.Hash
}

type Ingester struct {
	store  storage.Store
	meta   MetaStore
	hasher *dhash.Hasher
}

// NewIngester 组装入库流水线，meta 为 nil 时只写对象库
func NewIngester(store storage.Store, meta MetaStore, hasher *dhash.Hasher) *Ingester {
	return &Ingester{
		store:  store,
		meta:   meta,
		hasher: hasher,
	}
}

// Hasher 返回入库使用的哈希配置
func (ing *Ingester) Hasher() *dhash.Hasher {
	return ing.hasher
}

// IngestFile 读取图片文件并入库
func (ing *Ingester) IngestFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: no image file found at '%s'", dhash.ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ing.IngestBytes(ctx, data, path)
}

// IngestBytes 解码图片，计算 dHash 和 pHash，写入对象库和元数据库
func (ing *Ingester) IngestBytes(ctx context.Context, data []byte, source string) (*Result, error) {
	// 1. 解码 (只解码一次，两种指纹共用)
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dhash.ErrDecode, source, err)
	}

	// 2. dHash
	h, err := ing.hasher.HashImage(img, source)
	if err != nil {
		return nil, err
	}

	// 3. pHash 作为第二指纹
	ph, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to compute phash: %w", err)
	}

	// 4. 构造 Record
	bounds := img.Bounds()
	rec, err := core.NewRecord(core.CalculateBlobHash(data), h, ph.GetHash(), format, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, fmt.Errorf("failed to build record: %w", err)
	}

	// 5. 落盘
	if err := ing.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store record: %w", err)
	}
	if ing.meta != nil {
		if err := ing.meta.SaveHash(ctx, rec); err != nil {
			return nil, err
		}
	}

	return &Result{Record: rec, Hash: h}, nil
}
