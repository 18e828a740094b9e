package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	scanExcludes []string
	scanRehash   bool
)

var scanCmd = requireRepo(&cobra.Command{
	Use:   "scan <dir>",
	Short: "Hash every image under a directory into the vault",
	Long: `Recursively hash jpg/jpeg/png/gif images under <dir>. Files unchanged since
the last scan are skipped (use --rehash to decode everything again). Paths
matching .dvignore or --exclude are ignored. Files recorded by an earlier scan
of <dir> that no longer exist are removed from the vault's path list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if DV == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()
		start := time.Now()

		if scanRehash {
			DV.Index.Reset()
		}
		if DV.Index.IsEmpty() {
			fmt.Fprintln(out, "🔎 No previous scan recorded, hashing every image")
		}

		walker, err := DV.Walker(args[0], scanExcludes...)
		if err != nil {
			return err
		}
		report, err := walker.Walk(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		for _, f := range report.Failures {
			fmt.Fprintf(out, "⚠️  skipped %s: %v\n", f.Path, f.Err)
		}
		fmt.Fprintf(out, "✅ Hashed %d images, %d unchanged, %d removed, %d ignored in %s\n",
			report.Hashed, report.Unchanged, report.Removed, report.Ignored, time.Since(start).Round(time.Millisecond))
		return nil
	},
})

func init() {
	scanCmd.Flags().StringSliceVar(&scanExcludes, "exclude", nil, "extra ignore patterns (gitignore syntax)")
	scanCmd.Flags().BoolVar(&scanRehash, "rehash", false, "forget the scan index and decode every image again")
	rootCmd.AddCommand(scanCmd)
}
