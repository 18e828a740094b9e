package server

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"dhashvault/pkg/dhash"
	"dhashvault/pkg/meta"
	"dhashvault/pkg/service"
	"dhashvault/pkg/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// =============================================================================
// 1. Logging Interceptor (结构化日志)
// =============================================================================

// UnaryLoggingInterceptor 负责拦截普通请求 (HashService)
func UnaryLoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logRPC(ctx, "Unary", info.FullMethod, time.Since(start), err)
	return resp, err
}

// StreamLoggingInterceptor 负责拦截流式请求 (Health Watch)
func StreamLoggingInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	logRPC(ss.Context(), "Stream", info.FullMethod, time.Since(start), err)
	return err
}

// logRPC 统一的日志打印逻辑
func logRPC(ctx context.Context, kind, method string, duration time.Duration, err error) {
	code := status.Code(err)

	level := slog.LevelInfo
	if code != codes.OK {
		// 客户端输入错误算 Warn，Internal 算 Error
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelError
		} else {
			level = slog.LevelWarn
		}
	}

	slog.Log(ctx, level, "gRPC Request",
		slog.String("kind", kind),
		slog.String("method", method),
		slog.String("code", code.String()),
		slog.Duration("dur", duration),
		slog.String("err", errToString(err)),
	)
}

func errToString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// =============================================================================
// 2. Error Interceptor (领域错误 -> gRPC 状态码)
// =============================================================================

// UnaryErrorInterceptor 把 handler 返回的领域错误翻译为 gRPC status
func UnaryErrorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return nil, ToStatus(err)
	}
	return resp, nil
}

// ToStatus 按错误分类映射状态码，已经是 status 的错误原样返回
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, dhash.ErrFormat),
		errors.Is(err, dhash.ErrLengthMismatch),
		errors.Is(err, dhash.ErrInvalidHashSize),
		errors.Is(err, dhash.ErrInvalidGridSize),
		errors.Is(err, dhash.ErrUnsupportedComparisonType),
		errors.Is(err, dhash.ErrNullComparisonTarget),
		errors.Is(err, dhash.ErrDecode),
		errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, dhash.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, meta.ErrPathNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// =============================================================================
// 3. Recovery Interceptor
// =============================================================================

// UnaryRecoveryInterceptor 捕获 Panic
func UnaryRecoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverFromPanic(info.FullMethod, r)
		}
	}()
	return handler(ctx, req)
}

// StreamRecoveryInterceptor 捕获 Panic
func StreamRecoveryInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverFromPanic(info.FullMethod, r)
		}
	}()
	return handler(srv, ss)
}

func recoverFromPanic(method string, p any) error {
	slog.Error("🔥 PANIC RECOVERED",
		slog.String("method", method),
		slog.Any("panic", p),
		slog.String("stack", string(debug.Stack())),
	)
	// 返回 Internal 错误给客户端，而不是直接断开连接
	return status.Errorf(codes.Internal, "internal server error: panic recovered")
}

// NewGRPCServer 按固定顺序装配拦截器
// 顺序：Recovery (最外层) -> Logging -> Error 映射 -> handler
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			UnaryRecoveryInterceptor,
			UnaryLoggingInterceptor,
			UnaryErrorInterceptor,
		),
		grpc.ChainStreamInterceptor(
			StreamRecoveryInterceptor,
			StreamLoggingInterceptor,
		),
	}
	return grpc.NewServer(append(base, opts...)...)
}
