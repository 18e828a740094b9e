package ingester

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"dhashvault/pkg/dhash"
	"dhashvault/pkg/ignore"
	"dhashvault/pkg/index"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers 默认并发解码数
const DefaultWorkers = 4

// imageExts 是扫描时识别的图片扩展名 (与已注册的解码器一致)
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// IsImage 按扩展名判断是否为可处理的图片
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Failure 记录一个被跳过的坏文件
type Failure struct {
	Path string
	Err  error
}

// Report 汇总一次扫描
type Report struct {
	Hashed    int
	Unchanged int
	Ignored   int
	Removed   int // 上次扫描存在、本次已消失 (或已不可解码) 的文件
	Failures  []Failure
}

// Walker 递归扫描目录，把图片并发入库
type Walker struct {
	ing     *Ingester
	idx     *index.Index
	matcher *ignore.Matcher
	workers int
}

func NewWalker(ing *Ingester, idx *index.Index, matcher *ignore.Matcher, workers int) *Walker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Walker{ing: ing, idx: idx, matcher: matcher, workers: workers}
}

// Walk 扫描 root 下的所有图片
// 忽略规则基于相对 root 的路径，清单和元数据记录绝对路径
// 完整遍历后，清单中位于 root 下但本次未见到的文件会从清单和 paths 表中移除
func (w *Walker) Walk(ctx context.Context, root string) (*Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	seen := make(map[string]bool)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if gCtx.Err() != nil {
			return gCtx.Err()
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		// 1. 忽略规则
		if w.matcher.Matches(rel) {
			mu.Lock()
			report.Ignored++
			mu.Unlock()
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImage(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		key := index.CleanPath(path)
		seen[key] = true

		// 2. 未变化的文件直接跳过
		if w.idx != nil {
			if e, ok := w.idx.Get(key); ok && e.Unchanged(info.Size(), info.ModTime()) {
				mu.Lock()
				report.Unchanged++
				mu.Unlock()
				return nil
			}
		}

		// 3. 并发入库
		g.Go(func() error {
			res, err := w.ing.IngestFile(gCtx, path)
			if errors.Is(err, dhash.ErrDecode) || errors.Is(err, dhash.ErrNotFound) {
				slog.Warn("skipping unreadable image", "path", rel, "error", err)
				mu.Lock()
				report.Failures = append(report.Failures, Failure{Path: rel, Err: err})
				mu.Unlock()
				// 旧记录指向的内容已不存在，一并清除
				return w.forget(gCtx, key)
			}
			if err != nil {
				return fmt.Errorf("ingest %s: %w", rel, err)
			}

			content := res.Record.Content
			if w.ing.meta != nil {
				if err := w.ing.meta.SavePath(gCtx, key, content, info.Size(), info.ModTime()); err != nil {
					return err
				}
			}
			if w.idx != nil {
				w.idx.Add(key, content, info.Size(), info.ModTime())
			}

			mu.Lock()
			report.Hashed++
			mu.Unlock()
			return nil
		})
		return nil
	})

	// 必须等待已提交的任务结束，即使遍历出错
	if err := g.Wait(); err != nil {
		return report, err
	}
	if walkErr != nil {
		return report, walkErr
	}

	// 4. 清理已消失的文件 (只在完整遍历后进行，避免误删)
	removed, err := w.prune(ctx, index.CleanPath(absRoot), seen)
	report.Removed = removed
	if err != nil {
		return report, err
	}

	if w.idx != nil {
		if err := w.idx.Save(); err != nil {
			return report, fmt.Errorf("failed to save index: %w", err)
		}
	}
	return report, nil
}

// prune 移除位于 root 下、但不在 seen 中的路径
// 候选来自清单和 paths 表两处：清单被重置或丢失时元数据仍能被清理
func (w *Walker) prune(ctx context.Context, root string, seen map[string]bool) (int, error) {
	prefix := strings.TrimSuffix(root, "/") + "/"

	stale := make(map[string]bool)
	if w.idx != nil {
		for key := range w.idx.Snapshot() {
			if !seen[key] && strings.HasPrefix(key, prefix) {
				stale[key] = true
			}
		}
	}
	if w.ing.meta != nil {
		paths, err := w.ing.meta.PathsUnder(ctx, prefix)
		if err != nil {
			return 0, fmt.Errorf("failed to list known paths: %w", err)
		}
		for _, p := range paths {
			if !seen[p] {
				stale[p] = true
			}
		}
	}

	removed := 0
	for key := range stale {
		if err := w.forget(ctx, key); err != nil {
			return removed, err
		}
		slog.Debug("removed stale path", "path", key)
		removed++
	}
	return removed, nil
}

// forget 从清单和 paths 表中删除一个路径
func (w *Walker) forget(ctx context.Context, key string) error {
	if w.idx != nil {
		w.idx.Remove(key)
	}
	if w.ing.meta != nil {
		if err := w.ing.meta.DeletePath(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
