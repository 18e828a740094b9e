package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	dvrpc "dhashvault/pkg/api/dvrpc/v1"
	"dhashvault/pkg/dhash"
	"dhashvault/pkg/meta"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrInvalidArgument 表示请求字段类型或取值不合法
var ErrInvalidArgument = errors.New("invalid argument")

const (
	DefaultMaxDistance = 10
	DefaultLimit       = 20
)

// HashService 实现 dvrpc.HashServiceServer
// 返回的是领域错误，由 server.UnaryErrorInterceptor 统一翻译为 gRPC 状态码
type HashService struct {
	dvrpc.UnimplementedHashServiceServer
	repo        *meta.Repository
	defaultSize int
}

// NewHashService 创建服务，repo 为 nil 时只提供无状态的 Compare
func NewHashService(repo *meta.Repository, defaultSize int) *HashService {
	if defaultSize <= 0 {
		defaultSize = dhash.DefaultSize
	}
	return &HashService{repo: repo, defaultSize: defaultSize}
}

// Compare 计算两个哈希字符串的汉明距离
func (s *HashService) Compare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// 1. 解析参数
	size, err := intField(req, dvrpc.FieldSize, s.defaultSize)
	if err != nil {
		return nil, err
	}
	a := stringField(req, dvrpc.FieldA)
	b := stringField(req, dvrpc.FieldB)
	if a == "" || b == "" {
		return nil, fmt.Errorf("%w: both %q and %q are required", dhash.ErrNullComparisonTarget, dvrpc.FieldA, dvrpc.FieldB)
	}

	// 2. a 必须能还原为 Hash，b 可以是任意 Target 形式
	left, err := dhash.ParseHash(a, size)
	if err != nil {
		return nil, err
	}
	right, err := dhash.ParseTarget(b)
	if err != nil {
		return nil, err
	}

	d, err := left.DistanceTo(right)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{
		dvrpc.FieldDistance: d,
		dvrpc.FieldEqual:    d == 0,
	})
}

// Similar 在元数据库中查找相似图片
func (s *HashService) Similar(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("similarity search requires a metadata repository")
	}

	// 1. 解析参数
	size, err := intField(req, dvrpc.FieldSize, s.defaultSize)
	if err != nil {
		return nil, err
	}
	maxDistance, err := intField(req, dvrpc.FieldMaxDistance, DefaultMaxDistance)
	if err != nil {
		return nil, err
	}
	limit, err := intField(req, dvrpc.FieldLimit, DefaultLimit)
	if err != nil {
		return nil, err
	}
	raw := stringField(req, dvrpc.FieldHash)
	if raw == "" {
		return nil, fmt.Errorf("%w: %q is required", dhash.ErrNullComparisonTarget, dvrpc.FieldHash)
	}
	target, err := dhash.ParseHash(raw, size)
	if err != nil {
		return nil, err
	}

	// 2. 查询
	matches, err := s.repo.FindSimilar(ctx, target, maxDistance, limit)
	if err != nil {
		return nil, err
	}

	// 3. 组装响应
	list := make([]any, 0, len(matches))
	for _, m := range matches {
		paths := make([]any, 0, len(m.Paths))
		first := ""
		for i, p := range m.Paths {
			if i == 0 {
				first = p
			}
			paths = append(paths, p)
		}
		list = append(list, map[string]any{
			dvrpc.FieldRecord:   m.RecordID.String(),
			dvrpc.FieldContent:  m.Content.String(),
			dvrpc.FieldBinary:   m.Binary,
			dvrpc.FieldHex:      m.Hex,
			dvrpc.FieldDistance: m.Distance,
			dvrpc.FieldPath:     first,
			dvrpc.FieldPaths:    paths,
		})
	}
	return structpb.NewStruct(map[string]any{dvrpc.FieldMatches: list})
}

// Stats 返回某尺寸下已索引的指纹数量
func (s *HashService) Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("stats require a metadata repository")
	}
	size, err := intField(req, dvrpc.FieldSize, s.defaultSize)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountHashes(ctx, size)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		dvrpc.FieldSize:  size,
		dvrpc.FieldCount: count,
	})
}

// --- 参数解析 ---

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[key].GetStringValue()
}

// intField 读取非负整数字段，缺省时返回 def
func intField(req *structpb.Struct, key string, def int) (int, error) {
	if req == nil {
		return def, nil
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: field %q must be a number", ErrInvalidArgument, key)
	}
	f := n.NumberValue
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: field %q must be a non-negative integer, got %v", ErrInvalidArgument, key, f)
	}
	return int(f), nil
}
