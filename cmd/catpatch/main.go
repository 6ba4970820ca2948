package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ormasoftchile/catpatch/pkg/schema"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "catpatch",
	Short: "Idempotent text patcher for catalog.html",
	Long: "catpatch applies an ordered table of guarded text edits to a document.\n" +
		"Run with no arguments to add the product image carousel to ./catalog.html.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runApply,
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "catpatch %s (build: %s)\n", version, commit)
	},
}

func init() {
	addApplyFlags(rootCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(stepCmd)
	rootCmd.AddCommand(versionCmd)
}

// printValidationErrors lists warnings and errors and reports whether any
// error was found.
func printValidationErrors(w io.Writer, errs []*schema.ValidationError) bool {
	var failures []*schema.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(w, "  ⚠ [%s] %s\n", e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(w, "    at: %s\n", e.Path)
			}
			continue
		}
		failures = append(failures, e)
	}
	if len(failures) == 0 {
		return false
	}
	fmt.Fprintf(w, "Validation failed: %d error(s)\n\n", len(failures))
	for i, e := range failures {
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(w, "     at: %s\n", e.Path)
		}
	}
	return true
}
