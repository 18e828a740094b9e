package ingester

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"dhashvault/pkg/dhash"
	"dhashvault/pkg/meta"
	"dhashvault/pkg/storage/disk"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// peakPNG 生成中间亮两侧暗的三角波图片，dHash 固定为 0xf0f0f0f0f0f0f0f0
func peakPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			d := 2*u - 1
			if d < 0 {
				d = -d
			}
			img.SetGray(x, y, color.Gray{Y: uint8(255 * (1 - d))})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

type env struct {
	ing   *Ingester
	store *disk.Adapter
	repo  *meta.Repository
}

// setupEnv 组装 磁盘对象库 + 内存 SQLite + 默认尺寸 Hasher
func setupEnv(t *testing.T) *env {
	t.Helper()
	store, err := disk.NewAdapter(t.TempDir())
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// 共享缓存的内存库并发写会报 table locked，单连接串行化
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(meta.Models()...))
	repo := meta.NewRepository(metaDB)

	hasher, err := dhash.NewHasher(dhash.DefaultSize)
	require.NoError(t, err)

	return &env{ing: NewIngester(store, repo, hasher), store: store, repo: repo}
}
