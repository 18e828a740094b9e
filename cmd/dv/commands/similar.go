package commands

import (
	"fmt"

	"dhashvault/pkg/exporter"

	"github.com/spf13/cobra"
)

var (
	similarMaxDistance int
	similarLimit       int
)

var similarCmd = requireRepo(&cobra.Command{
	Use:   "similar <file|hash>",
	Short: "Find images in the vault within a Hamming distance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if DV == nil {
			return fmt.Errorf("app not initialized")
		}

		target, err := resolveHash(DV.Hasher, args[0])
		if err != nil {
			return err
		}

		matches, err := DV.Repo.FindSimilar(cmd.Context(), target, similarMaxDistance, similarLimit)
		if err != nil {
			return err
		}
		exporter.PrintMatches(matches, cmd.OutOrStdout())
		return nil
	},
})

func init() {
	similarCmd.Flags().IntVarP(&similarMaxDistance, "max-distance", "d", 10, "maximum Hamming distance")
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 20, "maximum number of matches (0 = no limit)")
	rootCmd.AddCommand(similarCmd)
}
