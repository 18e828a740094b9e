package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName 是用户自定义忽略规则的文件名
const FileName = ".dvignore"

// defaultRules 系统级默认忽略规则，强制生效
var defaultRules = []string{
	// --- 关键系统目录 ---
	".dv",  // 仓库元数据目录 (对象库、数据库、清单)
	".git", // Git 仓库数据

	// --- 安全与配置 ---
	"config.yaml", // 可能包含 S3 Secret Key
	".env",

	// --- 常见垃圾文件 ---
	".DS_Store", // macOS
	"Thumbs.db", // Windows 缩略图缓存，本身也是图片格式
}

// Matcher 判断扫描时一个文件是否应该被跳过
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 初始化忽略匹配器
// rootPath: 扫描根目录 (用于查找 .dvignore)
// extra: 命令行追加的规则 (如 --exclude)
func NewMatcher(rootPath string, extra ...string) (*Matcher, error) {
	rules := make([]string, 0, len(defaultRules)+len(extra))
	rules = append(rules, defaultRules...)
	rules = append(rules, extra...)

	// 1. 用户定义了 .dvignore：文件内容和默认规则合并编译
	ignoreFilePath := filepath.Join(rootPath, FileName)
	if _, err := os.Stat(ignoreFilePath); err == nil {
		ignorer, err := gitignore.CompileIgnoreFileAndLines(ignoreFilePath, rules...)
		if err != nil {
			return nil, err
		}
		return &Matcher{ignorer: ignorer}, nil
	}

	// 2. 仅默认规则
	return &Matcher{ignorer: gitignore.CompileIgnoreLines(rules...)}, nil
}

// Matches 检查给定的路径是否匹配忽略规则
// path: 相对于扫描根目录的路径 (例如 "photos/cat.png")
// 返回 true 表示应该跳过
func (m *Matcher) Matches(path string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	return m.ignorer.MatchesPath(filepath.ToSlash(path))
}
