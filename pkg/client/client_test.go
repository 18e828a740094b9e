package client

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	dvrpc "dhashvault/pkg/api/dvrpc/v1"
	"dhashvault/pkg/core"
	"dhashvault/pkg/dhash"
	"dhashvault/pkg/meta"
	"dhashvault/pkg/server"
	"dhashvault/pkg/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startServer 在内存连接上启动完整的 gRPC 服务端 (拦截器 + HashService + Health)
func startServer(t *testing.T) (*DVClient, *meta.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(meta.Models()...))
	repo := meta.NewRepository(metaDB)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer()
	dvrpc.RegisterHashServiceServer(srv, service.NewHashService(repo, dhash.DefaultSize))
	grpc_health_v1.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewDVClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, repo
}

func TestClient_Compare(t *testing.T) {
	c, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, eq, err := c.Compare(ctx, "0x0", "0xff", 0)
	require.NoError(t, err)
	assert.Equal(t, 8, d)
	assert.False(t, eq)

	d, eq, err = c.Compare(ctx, "0b1111", "0xF", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
	assert.True(t, eq)
}

func TestClient_Compare_InvalidArgument(t *testing.T) {
	c, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := c.Compare(ctx, "0x0", "deadbeef", 0)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, _, err = c.Compare(ctx, "0x1ffff", "0x0", 4)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClient_SimilarAndStats(t *testing.T) {
	c, repo := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := dhash.ParseHash("0x3", dhash.DefaultSize)
	require.NoError(t, err)
	rec, err := core.NewRecord(core.CalculateBlobHash([]byte("img")), h, 0, "png", 1, 1)
	require.NoError(t, err)
	require.NoError(t, repo.SaveHash(ctx, rec))
	require.NoError(t, repo.SavePath(ctx, "/a.png", rec.Content, 1, time.Now()))

	matches, err := c.Similar(ctx, "0x0", 0, 2, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].Distance)
	assert.Equal(t, rec.ID().String(), matches[0].Record)
	assert.Equal(t, []string{"/a.png"}, matches[0].Paths)

	// 阈值 0 只匹配完全相同
	matches, err = c.Similar(ctx, "0x0", 0, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	count, err := c.Stats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClient_Health(t *testing.T) {
	c, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}
