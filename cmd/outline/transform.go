package main

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/pdfoutline/internal/headings"
	"github.com/spf13/cobra"
)

var flagTransformJSON bool

var transformCmd = &cobra.Command{
	Use:   "transform <file.html>...",
	Short: "Wrap detected headings in <hN> elements, rewriting each file in place",
	Long: `Transform rewrites each HTML file in place. Files without any detected
heading are left untouched. Running it twice on the same file nests a second
set of wrappers, so keep the unprocessed output if you need to rerun.

Examples:
  outline transform report.html
  outline transform out/*.html --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().BoolVar(&flagTransformJSON, "json", false, "Print the wrapped headings as JSON")
}

func runTransform(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		res, err := headings.Transform(path)
		if err != nil {
			logger.Error("transform failed", "file", path, "error", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed++
			continue
		}
		logger.Debug("transformed",
			"file", path,
			"candidates", res.Candidates,
			"groups", res.Groups,
			"rejected", res.Rejected,
		)

		if flagTransformJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]any{"file": path, "result": res}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s: %d headings wrapped (%d candidates, %d groups, %d rejected)\n",
			path, len(res.Headings), res.Candidates, res.Groups, res.Rejected)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
