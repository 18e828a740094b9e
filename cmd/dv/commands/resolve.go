package commands

import (
	"os"

	"dhashvault/pkg/dhash"
)

// resolveHash 把命令行参数解析为 Hash
// 已存在的文件优先按图片处理 (文件名可能恰好以 0x / 0b 开头)，其余再尝试哈希字符串
func resolveHash(hasher *dhash.Hasher, arg string) (*dhash.Hash, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return hasher.HashFile(arg)
	}
	if _, err := dhash.ParseTarget(arg); err == nil {
		return dhash.ParseHash(arg, hasher.Size())
	}
	return hasher.HashFile(arg)
}
