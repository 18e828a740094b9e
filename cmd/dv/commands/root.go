package commands

import (
	"fmt"
	"log/slog"
	"os"

	"dhashvault/pkg/app"
	"dhashvault/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// annotationRepo 标记需要已初始化仓库的子命令
const annotationRepo = "dv/requires-repo"

var (
	cfgFile string
	verbose bool
	// 全局应用实例，供子命令使用 (测试中可直接注入)
	DV *app.App
)

var rootCmd = &cobra.Command{
	Use:   "dv",
	Short: "dhashvault: perceptual image hashing and near-duplicate search",
	Long: `dv computes difference hashes (dHash) of images, compares them by
Hamming distance, and keeps a local vault of fingerprints for
near-duplicate search.`,
	SilenceUsage: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationRepo] == "" || DV != nil {
			return nil
		}

		var err error
		DV, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize dhashvault: %w\n(Did you run 'dv init'?)", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if DV == nil || cmd.Annotations[annotationRepo] == "" {
			return nil
		}
		err := DV.Close()
		DV = nil
		return err
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// 1. 全局参数
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.dv/config.yaml or $HOME/.dv/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// 2. 可被 yaml / 环境变量覆盖的参数，绑定到 Viper
	rootCmd.PersistentFlags().String("storage-path", "", "directory to store objects")
	rootCmd.PersistentFlags().Int("size", 8, "hash size n (grid is (n+1) x n, hash has n*n bits)")
	mustBind("storage.path", "storage-path")
	mustBind("hash.size", "size")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量，并配置日志
func initConfig() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
	if used := config.Used(); used != "" {
		slog.Debug("using config file", "path", used)
	}
}

// requireRepo 标记子命令需要仓库
func requireRepo(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationRepo] = "true"
	return cmd
}
