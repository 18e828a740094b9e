package core

import (
	"errors"
	"fmt"

	"dhashvault/pkg/dhash"
	"dhashvault/pkg/types"
)

var ErrNotRecord = errors.New("object is not a record")

// Record 是一张图片在某个 HashSize 下的指纹
// 同一内容 + 同一尺寸 永远得到同一个 Record ID (规范编码保证)
// 路径不进入 Record：同一张图片放在两个位置只存一份
type Record struct {
	TypeVal ObjectType `cbor:"t"`
	Content types.Hash `cbor:"c"` // 图片原始字节的 SHA-256
	Size    int        `cbor:"n"` // dHash 网格高度 n
	Binary  string     `cbor:"b"` // "0b" + n^2 位
	PHash   uint64     `cbor:"p"` // goimagehash 感知哈希，作为第二指纹
	Format  string     `cbor:"f"` // 解码器名称 (png/jpeg/gif)
	Width   int        `cbor:"w"` // 原图尺寸
	Height  int        `cbor:"h"`

	hash types.Hash
	data []byte
}

// NewRecord 构造并密封 Record
func NewRecord(content types.Hash, h *dhash.Hash, pHash uint64, format string, width, height int) (*Record, error) {
	if h == nil {
		return nil, fmt.Errorf("record requires a dhash")
	}
	if !content.IsValid() {
		return nil, fmt.Errorf("invalid content hash %q", content)
	}

	r := &Record{
		TypeVal: TypeRecord,
		Content: content,
		Size:    h.Size(),
		Binary:  h.Binary(),
		PHash:   pHash,
		Format:  format,
		Width:   width,
		Height:  height,
	}

	id, data, err := CalculateHash(r)
	if err != nil {
		return nil, err
	}
	r.hash = id
	r.data = data
	return r, nil
}

// DecodeRecord 从存储的字节还原 Record
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := DecodeObject(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if r.TypeVal != TypeRecord {
		return nil, fmt.Errorf("%w: type %q", ErrNotRecord, r.TypeVal)
	}
	r.hash = CalculateBlobHash(data)
	r.data = data
	return &r, nil
}

func (r *Record) Type() ObjectType { return TypeRecord }
func (r *Record) ID() types.Hash   { return r.hash }
func (r *Record) Bytes() []byte    { return r.data }

// DHash 把存储的二进制形式还原为 dhash.Hash
func (r *Record) DHash() (*dhash.Hash, error) {
	return dhash.ParseHash(r.Binary, r.Size)
}

// Hex 返回十六进制展示形式
func (r *Record) Hex() string {
	h, err := r.DHash()
	if err != nil {
		return ""
	}
	return h.Hex()
}
