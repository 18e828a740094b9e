package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Defaults(t *testing.T) {
	// 1. 空目录 (没有 .dvignore)
	matcher, err := NewMatcher(t.TempDir())
	require.NoError(t, err)

	// 2. 验证默认规则
	tests := []struct {
		path     string
		shouldIg bool
	}{
		{".dv", true},
		{".dv/objects/aa", true}, // 子路径也应该被忽略
		{".git", true},
		{"config.yaml", true},
		{".DS_Store", true},
		{"photos/Thumbs.db", true},
		{"cat.png", false},
		{"photos/2024/dog.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.shouldIg, matcher.Matches(tt.path), "Path: %s", tt.path)
		})
	}
}

func TestMatcher_WithUserFile(t *testing.T) {
	tmpDir := t.TempDir()

	// 1. 创建 .dvignore，写入自定义规则
	ignoreContent := `
# 缩略图
*.thumb.png
cache
!keep.thumb.png
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(ignoreContent), 0644))

	matcher, err := NewMatcher(tmpDir)
	require.NoError(t, err)

	// 2. 验证混合规则 (默认 + 用户)
	tests := []struct {
		path     string
		shouldIg bool
	}{
		// --- 默认规则依然要生效 ---
		{".dv", true},
		{"config.yaml", true},

		// --- 用户规则生效 ---
		{"a.thumb.png", true},
		{"album/b.thumb.png", true},
		{"cache", true},
		{"cache/x.png", true},

		// --- 正常文件 ---
		{"a.png", false},

		// --- 负向规则 ---
		{"keep.thumb.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.shouldIg, matcher.Matches(tt.path), "Path: %s", tt.path)
		})
	}
}

func TestMatcher_ExtraRules(t *testing.T) {
	matcher, err := NewMatcher(t.TempDir(), "raw", "*.gif")
	require.NoError(t, err)

	assert.True(t, matcher.Matches("raw/a.png"))
	assert.True(t, matcher.Matches("anim.gif"))
	assert.False(t, matcher.Matches("still.png"))
}

func TestMatcher_Nil(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Matches("anything"))
}
