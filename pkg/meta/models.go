package meta

import (
	"time"

	"gorm.io/datatypes"
)

// HashModel 是 core.Record 在关系型数据库中的投影 (索引)
// 同一内容在同一尺寸下只有一行
type HashModel struct {
	// RecordID 是主键 (Record 规范编码的 SHA-256)
	RecordID string `gorm:"primaryKey;type:char(64)"`

	ContentHash string `gorm:"type:char(64);not null;uniqueIndex:idx_content_size"`
	HashSize    int    `gorm:"not null;uniqueIndex:idx_content_size;index"`

	// Binary 是比较用的原始形式，Hex 只用于展示和前缀查询
	Binary string `gorm:"type:text;not null"`
	Hex    string `gorm:"type:text;index"`

	// PHash 按 bit 原样存为有符号整数 (Postgres 没有 uint64)
	PHash int64

	// Info: 解码器格式、原图尺寸等非结构化信息
	Info datatypes.JSON

	CreatedAt time.Time
}

func (HashModel) TableName() string {
	return "hashes"
}

// PathModel 记录文件路径到内容的映射
// 多个路径可以指向同一内容
type PathModel struct {
	Path        string `gorm:"primaryKey;type:varchar(1024)"`
	ContentHash string `gorm:"type:char(64);not null;index"`
	SizeBytes   int64
	ModTime     int64 // Unix 纳秒

	UpdatedAt time.Time
}

func (PathModel) TableName() string {
	return "paths"
}

// Models 返回需要迁移的全部模型
func Models() []any {
	return []any{&HashModel{}, &PathModel{}}
}
