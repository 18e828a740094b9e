package dhash

import "errors"

// 错误分类 (全部通过 errors.Is 判断)
var (
	ErrNotFound                  = errors.New("image not found")
	ErrDecode                    = errors.New("image decode failed")
	ErrInvalidGridSize           = errors.New("invalid pixel grid size")
	ErrInvalidHashSize           = errors.New("hash size must be positive")
	ErrFormat                    = errors.New("invalid hash string format")
	ErrLengthMismatch            = errors.New("hash length mismatch")
	ErrUnsupportedComparisonType = errors.New("unsupported comparison type")
	ErrNullComparisonTarget      = errors.New("comparison target is nil")
)
