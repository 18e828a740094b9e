package commands

import (
	"fmt"

	"dhashvault/pkg/dhash"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b>",
	Short: "Hamming distance between two images or hash strings",
	Long: `Compare two images by their dHash. Each argument is either an image path
or a hash string starting with 0b (binary) or 0x (hexadecimal).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hasher, err := dhash.NewHasher(viper.GetInt("hash.size"))
		if err != nil {
			return err
		}

		a, err := resolveHash(hasher, args[0])
		if err != nil {
			return err
		}
		b, err := resolveHash(hasher, args[1])
		if err != nil {
			return err
		}

		d, err := a.DistanceTo(b)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "a:        %s\n", a.Hex())
		fmt.Fprintf(out, "b:        %s\n", b.Hex())
		fmt.Fprintf(out, "distance: %d / %d\n", d, a.BitCount())
		if d == 0 {
			fmt.Fprintln(out, "✅ identical")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
