// Package dvrpc 定义 HashService 的 gRPC 契约
//
// 服务没有 .proto 生成代码，请求和响应统一使用 google.protobuf.Struct，
// 字段名见各方法的常量。
package dvrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "dhashvault.v1.HashService"

const (
	CompareMethod = "/" + ServiceName + "/Compare"
	SimilarMethod = "/" + ServiceName + "/Similar"
	StatsMethod   = "/" + ServiceName + "/Stats"
)

// 请求字段
const (
	FieldA           = "a"
	FieldB           = "b"
	FieldHash        = "hash"
	FieldSize        = "size"
	FieldMaxDistance = "max_distance"
	FieldLimit       = "limit"
)

// 响应字段
const (
	FieldDistance = "distance"
	FieldEqual    = "equal"
	FieldMatches  = "matches"
	FieldRecord   = "record"
	FieldContent  = "content"
	FieldBinary   = "binary"
	FieldHex      = "hex"
	FieldPath     = "path"
	FieldPaths    = "paths"
	FieldCount    = "count"
)

// HashServiceServer 是服务端需要实现的接口
type HashServiceServer interface {
	// Compare {a, b, size} -> {distance, equal}
	Compare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Similar {hash, size, max_distance, limit} -> {matches: [{record, content, binary, hex, distance, path, paths}]}
	Similar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Stats {size} -> {size, count}
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedHashServiceServer 可嵌入以获得向前兼容
type UnimplementedHashServiceServer struct{}

func (UnimplementedHashServiceServer) Compare(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Compare not implemented")
}
func (UnimplementedHashServiceServer) Similar(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Similar not implemented")
}
func (UnimplementedHashServiceServer) Stats(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Stats not implemented")
}

// RegisterHashServiceServer 把实现注册到 gRPC Server
func RegisterHashServiceServer(s grpc.ServiceRegistrar, srv HashServiceServer) {
	s.RegisterService(&HashServiceDesc, srv)
}

// unaryHandler 生成统一的 Unary 方法处理器
func unaryHandler(fullMethod string, call func(HashServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HashServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(HashServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// HashServiceDesc 是手写的服务描述
var HashServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HashServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Compare",
			Handler:    unaryHandler(CompareMethod, HashServiceServer.Compare),
		},
		{
			MethodName: "Similar",
			Handler:    unaryHandler(SimilarMethod, HashServiceServer.Similar),
		},
		{
			MethodName: "Stats",
			Handler:    unaryHandler(StatsMethod, HashServiceServer.Stats),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// HashServiceClient 是客户端接口
type HashServiceClient interface {
	Compare(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Similar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Stats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type hashServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewHashServiceClient(cc grpc.ClientConnInterface) HashServiceClient {
	return &hashServiceClient{cc: cc}
}

func (c *hashServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hashServiceClient) Compare(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CompareMethod, in, opts...)
}

func (c *hashServiceClient) Similar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SimilarMethod, in, opts...)
}

func (c *hashServiceClient) Stats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, StatsMethod, in, opts...)
}
