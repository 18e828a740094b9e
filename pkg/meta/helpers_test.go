package meta

import (
	"context"
	"fmt"
	"testing"

	"dhashvault/pkg/core"
	"dhashvault/pkg/dhash"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo 构建隔离的测试环境 (内存 SQLite)
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(Models()...))
	return NewRepository(metaDB)
}

// mustRecord 根据内容和哈希字符串构造 Record
func mustRecord(t *testing.T, content, hash string, size int) *core.Record {
	t.Helper()
	h, err := dhash.ParseHash(hash, size)
	require.NoError(t, err)
	rec, err := core.NewRecord(core.CalculateBlobHash([]byte(content)), h, 42, "png", 100, 80)
	require.NoError(t, err)
	return rec
}

// mustSaveHash 强制索引，失败则终止
func mustSaveHash(t *testing.T, repo *Repository, rec *core.Record, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, repo.SaveHash(context.Background(), rec), msgAndArgs...)
}
