package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RepoDir 是仓库元数据目录名
const RepoDir = ".dv"

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录 -> ./.dv -> ~/.dv
		viper.AddConfigPath(".")
		viper.AddConfigPath(RepoDir)
		viper.AddConfigPath(filepath.Join(home, RepoDir))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (DV_HASH_SIZE 对应 hash.size)
	viper.SetEnvPrefix("DV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错，格式错才是错
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	return nil
}

// Used 返回实际生效的配置文件，没有则为空
func Used() string {
	return viper.ConfigFileUsed()
}

func setDefaults() {
	wd, _ := os.Getwd()
	repoPath := filepath.Join(wd, RepoDir)

	// 哈希
	viper.SetDefault("hash.size", 8)

	// 存储
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", filepath.Join(repoPath, "objects"))
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.prefix", "records")

	// 元数据库
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", filepath.Join(repoPath, "meta.db"))
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// 缓存 (redis_url 为空表示不启用)
	viper.SetDefault("cache.ttl", "24h")

	// 扫描与服务
	viper.SetDefault("scan.workers", 4)
	viper.SetDefault("server.addr", ":8080")
}
