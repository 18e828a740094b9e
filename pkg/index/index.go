// Package index 维护扫描清单：记录每个已扫描文件的大小和修改时间，
// 文件未变化时跳过重新解码。
package index

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dhashvault/pkg/types"
)

// Entry 代表清单中的一个文件
type Entry struct {
	Path       string     `json:"path"`        // 清理后的绝对路径，分隔符统一为 "/" (如 "/home/me/photos/cat.png")
	Content    types.Hash `json:"content"`     // 图片原始字节的 SHA-256
	Size       int64      `json:"size"`        // 文件大小
	ModifiedAt time.Time  `json:"modified_at"` // 文件自身的修改时间
}

// Unchanged 判断文件自上次扫描后是否未变
func (e Entry) Unchanged(size int64, modTime time.Time) bool {
	return e.Size == size && e.ModifiedAt.Equal(modTime)
}

// Index 管理扫描清单
type Index struct {
	path    string           // 物理文件路径 (.dv/index)
	Entries map[string]Entry `json:"entries"`
	mu      sync.RWMutex
}

// NewIndex 加载或创建一个新的 Index
func NewIndex(indexPath string) (*Index, error) {
	idx := &Index{
		path:    indexPath,
		Entries: make(map[string]Entry),
	}

	// 尝试加载现有文件
	if _, err := os.Stat(indexPath); err == nil {
		data, err := os.ReadFile(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read index: %w", err)
		}
		if err := json.Unmarshal(data, idx); err != nil {
			return nil, fmt.Errorf("corrupted index file: %w", err)
		}
		if idx.Entries == nil {
			idx.Entries = make(map[string]Entry)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return idx, nil
}

// Add 更新一条记录
func (i *Index) Add(path string, content types.Hash, size int64, modTime time.Time) {
	key := CleanPath(path)
	i.mu.Lock()
	defer i.mu.Unlock()

	i.Entries[key] = Entry{
		Path:       key,
		Content:    content,
		Size:       size,
		ModifiedAt: modTime,
	}
}

// Get 查找一条记录
func (i *Index) Get(path string) (Entry, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.Entries[CleanPath(path)]
	return e, ok
}

// Remove 删除一条记录 (文件已从扫描目录中消失)
func (i *Index) Remove(path string) {
	key := CleanPath(path)
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.Entries, key)
}

// Save 将清单持久化到磁盘 (先写临时文件再 rename)
func (i *Index) Save() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return err
	}

	tmp := i.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, i.path)
}

// Snapshot 返回当前 Entry 的副本，用于并发安全的读取
func (i *Index) Snapshot() map[string]Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	snap := make(map[string]Entry, len(i.Entries))
	maps.Copy(snap, i.Entries)
	return snap
}

// Reset 清空清单，下次扫描会重新解码所有文件
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Entries = make(map[string]Entry)
}

// IsEmpty 检查清单是否为空
func (i *Index) IsEmpty() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.Entries) == 0
}

func CleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
