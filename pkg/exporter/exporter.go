package exporter

import (
	"context"
	"fmt"
	"io"

	"dhashvault/pkg/meta"
	"dhashvault/pkg/storage"
	"dhashvault/pkg/types"
)

// Exporter 从对象库读取 Record 并以人类可读的形式输出
type Exporter struct {
	store storage.Store
	repo  *meta.Repository // 可选，用于补充路径信息
}

func NewExporter(store storage.Store, repo *meta.Repository) *Exporter {
	return &Exporter{store: store, repo: repo}
}

// Resolve 把短哈希展开为完整的 Record ID
func (e *Exporter) Resolve(ctx context.Context, prefix string) (types.Hash, error) {
	return e.store.ExpandHash(ctx, types.HashPrefix(prefix))
}

// ResolvePath 通过 paths 表把已扫描的文件映射到其 Record ID
func (e *Exporter) ResolvePath(ctx context.Context, path string, size int) (types.Hash, error) {
	if e.repo == nil {
		return "", fmt.Errorf("path lookup needs the metadata database")
	}
	p, err := e.repo.GetPath(ctx, path)
	if err != nil {
		return "", err
	}
	h, err := e.repo.GetHash(ctx, types.Hash(p.ContentHash), size)
	if err != nil {
		return "", err
	}
	if h == nil {
		return "", fmt.Errorf("%s has no size-%d hash, rescan with --size %d", path, size, size)
	}
	return types.Hash(h.RecordID), nil
}

// PrintObject 打印一个 Record 及其已知路径
func (e *Exporter) PrintObject(ctx context.Context, hash types.Hash, w io.Writer) error {
	// 1. 读取原始字节
	reader, err := e.store.Get(ctx, hash)
	if err != nil {
		return err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	// 2. 解码并打印
	ok, err := PrintStructure(data, w)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("object %s is not a record", hash.Short())
	}

	// 3. 路径
	if e.repo == nil {
		return nil
	}
	rec, err := storage.ReadRecord(ctx, e.store, hash)
	if err != nil {
		return err
	}
	paths, err := e.repo.ListPaths(ctx, rec.Content)
	if err != nil {
		return err
	}
	PrintPaths(paths, w)
	return nil
}
