package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dhashvault/pkg/dhash"
	"dhashvault/pkg/ignore"
	"dhashvault/pkg/index"
	"dhashvault/pkg/ingester"
	"dhashvault/pkg/meta"
	"dhashvault/pkg/storage"
	"dhashvault/pkg/storage/cache"
	"dhashvault/pkg/storage/disk"
	"dhashvault/pkg/storage/s3"

	"github.com/spf13/viper"
)

var ErrNotInitialized = errors.New("not a dhashvault repository")

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有“单例”服务
type App struct {
	Store    storage.Store
	DB       *meta.DB
	Repo     *meta.Repository
	Index    *index.Index
	Hasher   *dhash.Hasher
	Ingester *ingester.Ingester
	RepoPath string

	closers []io.Closer
}

// NewApp 是工厂函数，负责组装这一台机器
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 获取仓库根路径 (storage.path 的上一层，即 .dv)
	storePath := viper.GetString("storage.path")
	if storePath == "" {
		return nil, fmt.Errorf("storage path not set")
	}
	repoPath := filepath.Dir(storePath)
	if _, err := os.Stat(repoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, repoPath)
	}

	// 2. 哈希尺寸
	hasher, err := dhash.NewHasher(viper.GetInt("hash.size"))
	if err != nil {
		return nil, err
	}

	// 3. 初始化存储层
	store, err := initStore(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	a := &App{Store: store, Hasher: hasher, RepoPath: repoPath}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	// 4. 元数据库
	db, err := meta.NewDB(ctx, dbConfig(repoPath))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init metadata db: %w", err)
	}
	a.DB = db
	a.Repo = meta.NewRepository(db)
	a.closers = append(a.closers, db)

	// 5. 扫描清单
	idx, err := index.NewIndex(filepath.Join(repoPath, "index.json"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	a.Index = idx

	a.Ingester = ingester.NewIngester(store, a.Repo, hasher)
	return a, nil
}

// Walker 为一次目录扫描组装忽略规则和并发度
func (a *App) Walker(root string, excludes ...string) (*ingester.Walker, error) {
	matcher, err := ignore.NewMatcher(root, excludes...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}
	return ingester.NewWalker(a.Ingester, a.Index, matcher, viper.GetInt("scan.workers")), nil
}

// Close 释放数据库连接和缓存连接
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// initStore 按 storage.type 选择后端，配置了 Redis 时再套一层缓存
func initStore(ctx context.Context, repoPath string) (storage.Store, error) {
	var backend storage.Store

	switch t := viper.GetString("storage.type"); t {
	case "", "disk":
		path := viper.GetString("storage.path")
		if path == "" {
			path = filepath.Join(repoPath, "objects")
		}
		store, err := disk.NewAdapter(path)
		if err != nil {
			return nil, fmt.Errorf("failed to init disk storage: %w", err)
		}
		backend = store
	case "s3":
		store, err := s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          viper.GetString("s3.bucket"),
			Prefix:          viper.GetString("s3.prefix"),
			AccessKeyID:     viper.GetString("s3.access_key"),
			SecretAccessKey: viper.GetString("s3.secret_key"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init s3 storage: %w", err)
		}
		backend = store
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", t)
	}

	redisURL := viper.GetString("cache.redis_url")
	if redisURL == "" {
		return backend, nil
	}
	cached, err := cache.NewCachedStore(backend, cache.Config{
		RedisURL: redisURL,
		TTL:      viper.GetDuration("cache.ttl"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init redis cache: %w", err)
	}
	return cached, nil
}

func dbConfig(repoPath string) meta.Config {
	path := viper.GetString("database.path")
	if path == "" {
		path = filepath.Join(repoPath, "meta.db")
	}
	return meta.Config{
		Driver:   viper.GetString("database.driver"),
		Path:     path,
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.name"),
		SSLMode:  viper.GetString("database.sslmode"),
	}
}
