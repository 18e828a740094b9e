package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dhashvault/pkg/core"
	"dhashvault/pkg/dhash"
	"dhashvault/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPathNotFound = errors.New("path not found in metadata")

// similarBatchSize 是相似度扫描每批读取的行数
const similarBatchSize = 500

// Repository 封装所有对 SQL 数据库的操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Match 是一次相似度查询的结果
type Match struct {
	RecordID types.Hash
	Content  types.Hash
	Binary   string
	Hex      string
	Distance int
	Paths    []string
}

// recordInfo 是 HashModel.Info 的 JSON 结构
type recordInfo struct {
	Format string `json:"format,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// -----------------------------------------------------------------------------
// 1. 指纹索引 (Hashes)
// -----------------------------------------------------------------------------

// SaveHash 将 core.Record “投影”到 SQL 数据库中 (幂等写入)
func (r *Repository) SaveHash(ctx context.Context, rec *core.Record) error {
	info, err := json.Marshal(recordInfo{Format: rec.Format, Width: rec.Width, Height: rec.Height})
	if err != nil {
		return fmt.Errorf("failed to marshal record info: %w", err)
	}

	model := HashModel{
		RecordID:    rec.ID().String(),
		ContentHash: rec.Content.String(),
		HashSize:    rec.Size,
		Binary:      rec.Binary,
		Hex:         rec.Hex(),
		PHash:       int64(rec.PHash),
		Info:        datatypes.JSON(info),
	}

	// 已存在则什么都不做 (First write wins)
	err = r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to index hash: %w", err)
	}
	return nil
}

// GetHash 按内容和尺寸查找指纹
// 返回 nil, nil 表示未命中
func (r *Repository) GetHash(ctx context.Context, content types.Hash, size int) (*HashModel, error) {
	var m HashModel
	err := r.db.GetConn().WithContext(ctx).
		Where("content_hash = ? AND hash_size = ?", content.String(), size).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountHashes 返回某尺寸下的指纹数量
func (r *Repository) CountHashes(ctx context.Context, size int) (int64, error) {
	var count int64
	err := r.db.GetConn().WithContext(ctx).
		Model(&HashModel{}).
		Where("hash_size = ?", size).
		Count(&count).Error
	return count, err
}

// FindSimilar 返回与 target 汉明距离不超过 maxDistance 的指纹
// SQL 无法直接算汉明距离，这里分批读取同尺寸的行在内存中比较
// 结果按距离升序，距离相同按内容哈希排序；limit <= 0 表示不限制
func (r *Repository) FindSimilar(ctx context.Context, target *dhash.Hash, maxDistance, limit int) ([]Match, error) {
	if target == nil {
		return nil, dhash.ErrNullComparisonTarget
	}

	var matches []Match
	var batch []HashModel
	result := r.db.GetConn().WithContext(ctx).
		Where("hash_size = ?", target.Size()).
		FindInBatches(&batch, similarBatchSize, func(tx *gorm.DB, _ int) error {
			for _, m := range batch {
				d, err := target.DistanceTo(dhash.BinaryString(m.Binary))
				if err != nil {
					return fmt.Errorf("corrupted hash row %s: %w", m.RecordID, err)
				}
				if d > maxDistance {
					continue
				}
				matches = append(matches, Match{
					RecordID: types.Hash(m.RecordID),
					Content:  types.Hash(m.ContentHash),
					Binary:   m.Binary,
					Hex:      m.Hex,
					Distance: d,
				})
			}
			return nil
		})
	if result.Error != nil {
		return nil, result.Error
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Content < matches[j].Content
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	// 补充路径信息
	for i := range matches {
		paths, err := r.ListPaths(ctx, matches[i].Content)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			matches[i].Paths = append(matches[i].Paths, p.Path)
		}
	}
	return matches, nil
}

// -----------------------------------------------------------------------------
// 2. 路径映射 (Paths)
// -----------------------------------------------------------------------------

// SavePath 写入或更新一条路径记录 (Upsert)
func (r *Repository) SavePath(ctx context.Context, path string, content types.Hash, sizeBytes int64, modTime time.Time) error {
	model := PathModel{
		Path:        path,
		ContentHash: content.String(),
		SizeBytes:   sizeBytes,
		ModTime:     modTime.UnixNano(),
		UpdatedAt:   time.Now(),
	}
	err := r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_hash", "size_bytes", "mod_time", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save path: %w", err)
	}
	return nil
}

// GetPath 查找单条路径
func (r *Repository) GetPath(ctx context.Context, path string) (*PathModel, error) {
	var m PathModel
	err := r.db.GetConn().WithContext(ctx).
		Where("path = ?", path).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeletePath 删除一条路径记录，路径不存在时不报错
// 指纹行 (hashes) 保留：同一内容可能仍被其它路径引用
func (r *Repository) DeletePath(ctx context.Context, path string) error {
	err := r.db.GetConn().WithContext(ctx).
		Where("path = ?", path).
		Delete(&PathModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete path: %w", err)
	}
	return nil
}

// PathsUnder 返回以 prefix 开头的全部路径 (按路径排序)
// LIKE 在 SQLite 中对 ASCII 不区分大小写，结果再按字节前缀过滤一次
func (r *Repository) PathsUnder(ctx context.Context, prefix string) ([]string, error) {
	var rows []string
	err := r.db.GetConn().WithContext(ctx).
		Model(&PathModel{}).
		Where("path LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"%").
		Order("path ASC").
		Pluck("path", &rows).Error
	if err != nil {
		return nil, err
	}

	paths := rows[:0]
	for _, p := range rows {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListPaths 返回指向同一内容的全部路径
func (r *Repository) ListPaths(ctx context.Context, content types.Hash) ([]PathModel, error) {
	var paths []PathModel
	err := r.db.GetConn().WithContext(ctx).
		Where("content_hash = ?", content.String()).
		Order("path ASC").
		Find(&paths).Error
	return paths, err
}
