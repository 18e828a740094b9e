package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	dvrpc "dhashvault/pkg/api/dvrpc/v1"
	"dhashvault/pkg/core"
	"dhashvault/pkg/dhash"
	"dhashvault/pkg/meta"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestService 构建一个隔离的 HashService 测试环境 (内存 SQLite)
func setupTestService(t *testing.T) (*HashService, *meta.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(meta.Models()...))
	repo := meta.NewRepository(metaDB)

	return NewHashService(repo, dhash.DefaultSize), repo
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

// seed 写入一条指纹和一个路径
func seed(t *testing.T, repo *meta.Repository, content, hash, path string) *core.Record {
	t.Helper()
	h, err := dhash.ParseHash(hash, dhash.DefaultSize)
	require.NoError(t, err)
	rec, err := core.NewRecord(core.CalculateBlobHash([]byte(content)), h, 0, "png", 10, 10)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, repo.SaveHash(ctx, rec))
	require.NoError(t, repo.SavePath(ctx, path, rec.Content, 1, time.Now()))
	return rec
}

func TestHashService_Compare(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	// Case 1: 十六进制 vs 二进制
	resp, err := svc.Compare(ctx, mustStruct(t, map[string]any{
		dvrpc.FieldA: "0x0",
		dvrpc.FieldB: "0b" + "00000000000000000000000000000000000000000000000000000000" + "11111111",
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(8), resp.GetFields()[dvrpc.FieldDistance].GetNumberValue())
	assert.False(t, resp.GetFields()[dvrpc.FieldEqual].GetBoolValue())

	// Case 2: 相等
	resp, err = svc.Compare(ctx, mustStruct(t, map[string]any{
		dvrpc.FieldA: "0xF0F0", dvrpc.FieldB: "0xf0f0", dvrpc.FieldSize: 4,
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.GetFields()[dvrpc.FieldDistance].GetNumberValue())
	assert.True(t, resp.GetFields()[dvrpc.FieldEqual].GetBoolValue())
}

func TestHashService_Compare_Errors(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  map[string]any
		want error
	}{
		{"missing b", map[string]any{dvrpc.FieldA: "0x0"}, dhash.ErrNullComparisonTarget},
		{"no marker", map[string]any{dvrpc.FieldA: "0x0", dvrpc.FieldB: "1010"}, dhash.ErrFormat},
		{"too wide", map[string]any{dvrpc.FieldA: "0x1ffff", dvrpc.FieldB: "0x0", dvrpc.FieldSize: 4}, dhash.ErrLengthMismatch},
		{"bad size", map[string]any{dvrpc.FieldA: "0x0", dvrpc.FieldB: "0x0", dvrpc.FieldSize: 2.5}, ErrInvalidArgument},
		{"size type", map[string]any{dvrpc.FieldA: "0x0", dvrpc.FieldB: "0x0", dvrpc.FieldSize: "8"}, ErrInvalidArgument},
		{"zero size", map[string]any{dvrpc.FieldA: "0x0", dvrpc.FieldB: "0x0", dvrpc.FieldSize: 0}, dhash.ErrInvalidHashSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Compare(ctx, mustStruct(t, tt.req))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHashService_Similar(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	near := seed(t, repo, "near", "0x000000000000000f", "/img/near.png")
	seed(t, repo, "far", "0xffffffffffffffff", "/img/far.png")

	resp, err := svc.Similar(ctx, mustStruct(t, map[string]any{
		dvrpc.FieldHash:        "0x0",
		dvrpc.FieldMaxDistance: 4,
	}))
	require.NoError(t, err)

	list := resp.GetFields()[dvrpc.FieldMatches].GetListValue().GetValues()
	require.Len(t, list, 1)
	m := list[0].GetStructValue().GetFields()
	assert.Equal(t, near.ID().String(), m[dvrpc.FieldRecord].GetStringValue())
	assert.Equal(t, "/img/near.png", m[dvrpc.FieldPath].GetStringValue())
	assert.Equal(t, float64(4), m[dvrpc.FieldDistance].GetNumberValue())
	assert.Equal(t, "0xf", m[dvrpc.FieldHex].GetStringValue())

	// 缺少 hash
	_, err = svc.Similar(ctx, mustStruct(t, map[string]any{}))
	assert.ErrorIs(t, err, dhash.ErrNullComparisonTarget)
}

func TestHashService_Stats(t *testing.T) {
	svc, repo := setupTestService(t)
	seed(t, repo, "a", "0x1", "/a.png")

	resp, err := svc.Stats(context.Background(), mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.GetFields()[dvrpc.FieldCount].GetNumberValue())
	assert.Equal(t, float64(8), resp.GetFields()[dvrpc.FieldSize].GetNumberValue())
}

func TestHashService_WithoutRepo(t *testing.T) {
	svc := NewHashService(nil, 0)
	ctx := context.Background()

	_, err := svc.Similar(ctx, mustStruct(t, map[string]any{dvrpc.FieldHash: "0x0"}))
	assert.Error(t, err)

	// Compare 不依赖元数据库
	resp, err := svc.Compare(ctx, mustStruct(t, map[string]any{dvrpc.FieldA: "0x0", dvrpc.FieldB: "0x0"}))
	require.NoError(t, err)
	assert.True(t, resp.GetFields()[dvrpc.FieldEqual].GetBoolValue())
}
