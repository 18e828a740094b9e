package client

import (
	"context"
	"fmt"
	"time"

	dvrpc "dhashvault/pkg/api/dvrpc/v1"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
)

// DVClient 封装了与 dhashvault 服务端的连接
type DVClient struct {
	conn *grpc.ClientConn

	Hash   dvrpc.HashServiceClient
	Health grpc_health_v1.HealthClient
}

// Match 是 Similar 返回的一条结果
type Match struct {
	Record   string
	Content  string
	Binary   string
	Hex      string
	Distance int
	Paths    []string
}

// NewDVClient 创建并初始化客户端
// 连接在后台建立，网络不通不会在这里报错
func NewDVClient(addr string, extra ...grpc.DialOption) (*DVClient, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}

	return &DVClient{
		conn:   conn,
		Hash:   dvrpc.NewHashServiceClient(conn),
		Health: grpc_health_v1.NewHealthClient(conn),
	}, nil
}

// Compare 返回两个哈希字符串的距离；size <= 0 使用服务端默认值
func (c *DVClient) Compare(ctx context.Context, a, b string, size int) (int, bool, error) {
	fields := map[string]any{dvrpc.FieldA: a, dvrpc.FieldB: b}
	if size > 0 {
		fields[dvrpc.FieldSize] = size
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return 0, false, err
	}

	resp, err := c.Hash.Compare(ctx, req)
	if err != nil {
		return 0, false, err
	}
	f := resp.GetFields()
	return int(f[dvrpc.FieldDistance].GetNumberValue()), f[dvrpc.FieldEqual].GetBoolValue(), nil
}

// Similar 查询相似图片；size、limit <= 0 或 maxDistance < 0 时使用服务端默认值
func (c *DVClient) Similar(ctx context.Context, hash string, size, maxDistance, limit int) ([]Match, error) {
	fields := map[string]any{dvrpc.FieldHash: hash}
	if size > 0 {
		fields[dvrpc.FieldSize] = size
	}
	if maxDistance >= 0 {
		fields[dvrpc.FieldMaxDistance] = maxDistance
	}
	if limit > 0 {
		fields[dvrpc.FieldLimit] = limit
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	resp, err := c.Hash.Similar(ctx, req)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, v := range resp.GetFields()[dvrpc.FieldMatches].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		m := Match{
			Record:   f[dvrpc.FieldRecord].GetStringValue(),
			Content:  f[dvrpc.FieldContent].GetStringValue(),
			Binary:   f[dvrpc.FieldBinary].GetStringValue(),
			Hex:      f[dvrpc.FieldHex].GetStringValue(),
			Distance: int(f[dvrpc.FieldDistance].GetNumberValue()),
		}
		for _, p := range f[dvrpc.FieldPaths].GetListValue().GetValues() {
			m.Paths = append(m.Paths, p.GetStringValue())
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Stats 返回服务端某尺寸下的指纹数量
func (c *DVClient) Stats(ctx context.Context, size int) (int64, error) {
	fields := map[string]any{}
	if size > 0 {
		fields[dvrpc.FieldSize] = size
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return 0, err
	}
	resp, err := c.Hash.Stats(ctx, req)
	if err != nil {
		return 0, err
	}
	return int64(resp.GetFields()[dvrpc.FieldCount].GetNumberValue()), nil
}

// Close 关闭底层连接
func (c *DVClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
