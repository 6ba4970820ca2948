package main

import (
	"fmt"
	"io"

	"github.com/ormasoftchile/catpatch/pkg/render"
	"github.com/ormasoftchile/catpatch/pkg/store"
	"github.com/spf13/cobra"
)

var (
	checkFile  string
	checkRules string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which rules would change the document, without writing",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	return checkDocument(cmd.OutOrStdout(), cmd.ErrOrStderr(), openStore(), checkFile, checkRules)
}

func checkDocument(w, errW io.Writer, st *store.Store, file, rulesPath string) error {
	m, table, err := loadTable(errW, rulesPath)
	if err != nil {
		return err
	}
	target, err := resolveTarget(file, m)
	if err != nil {
		return err
	}
	text, err := st.Read(target)
	if err != nil {
		return err
	}
	pending, err := table.Plan(text)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		fmt.Fprintf(w, "%s\n", target)
		for _, r := range pending {
			fmt.Fprintf(w, "  %s %s  would apply (%+d bytes at %d)\n", render.GlyphPending, r.Rule, r.Added, r.Offset)
		}
		return fmt.Errorf("%d rule(s) pending for %s", len(pending), target)
	}
	fmt.Fprintf(w, "✓ %s is up to date\n", target)
	return nil
}

func init() {
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "Document to check (default: the manifest target, or catalog.html)")
	checkCmd.Flags().StringVar(&checkRules, "rules", "", "Patchset manifest YAML to check instead of the built-in table")
}
