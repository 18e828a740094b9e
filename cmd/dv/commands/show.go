package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"dhashvault/pkg/exporter"
	"dhashvault/pkg/index"
	"dhashvault/pkg/types"

	"github.com/spf13/cobra"
)

var showCmd = requireRepo(&cobra.Command{
	Use:   "show <record|file>",
	Short: "Show a stored record by its ID, ID prefix, or a scanned file path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if DV == nil {
			return fmt.Errorf("app not initialized")
		}
		ctx := cmd.Context()

		exp := exporter.NewExporter(DV.Store, DV.Repo)

		// 1. 已扫描的文件：按绝对路径查 paths 表
		var id types.Hash
		var err error
		if info, statErr := os.Stat(args[0]); statErr == nil && !info.IsDir() {
			abs, absErr := filepath.Abs(args[0])
			if absErr != nil {
				return absErr
			}
			id, err = exp.ResolvePath(ctx, index.CleanPath(abs), DV.Hasher.Size())
		} else {
			// 2. 否则视为 Record ID 前缀
			id, err = exp.Resolve(ctx, args[0])
		}
		if err != nil {
			return fmt.Errorf("cannot resolve %q: %w", args[0], err)
		}
		return exp.PrintObject(ctx, id, cmd.OutOrStdout())
	},
})

func init() {
	rootCmd.AddCommand(showCmd)
}
