package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"dhashvault/pkg/app"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a dhashvault repository",
	Long:  `Create an empty dhashvault repository (.dv) with an object store, a metadata database and a scan index.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		// 1. 仓库路径 = storage.path 的上一层 (默认 ./.dv)
		objectsPath := viper.GetString("storage.path")
		repoPath := filepath.Dir(objectsPath)

		// 2. 检查是否已存在
		if _, err := os.Stat(repoPath); err == nil {
			fmt.Fprintf(out, "⚠️  dhashvault repository already exists in %s\n", repoPath)
			return nil
		}

		// 3. 创建目录结构
		if err := os.MkdirAll(objectsPath, 0755); err != nil {
			return fmt.Errorf("failed to create repo directory: %w", err)
		}

		// 4. 组装一次 App，建立数据库表结构
		a, err := app.NewApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.Close(); err != nil {
			return err
		}

		fmt.Fprintf(out, "✅ Initialized empty dhashvault repository in %s\n", repoPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
