package commands

import (
	"fmt"
	"log/slog"

	"dhashvault/pkg/dhash"
	"dhashvault/pkg/exporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var hashHex bool

var hashCmd = &cobra.Command{
	Use:   "hash <file>...",
	Short: "Print the dHash of one or more images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hasher, err := dhash.NewHasher(viper.GetInt("hash.size"))
		if err != nil {
			return err
		}

		// 单个文件失败不影响其它文件
		failed := 0
		for _, path := range args {
			h, err := hasher.HashFile(path)
			if err != nil {
				slog.Error("failed to hash image", "path", path, "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
				failed++
				continue
			}
			exporter.PrintHash(h, hashHex, cmd.OutOrStdout())
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d images could not be hashed", failed, len(args))
		}
		return nil
	},
}

func init() {
	hashCmd.Flags().BoolVar(&hashHex, "hex", false, "print the hexadecimal form instead of binary")
	rootCmd.AddCommand(hashCmd)
}
