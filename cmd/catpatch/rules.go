package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/catpatch/pkg/render"
	"github.com/spf13/cobra"
)

var (
	rulesPath     string
	rulesMarkdown bool
	rulesExport   bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the patch rules in application order",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	return listRules(cmd.OutOrStdout(), cmd.ErrOrStderr(), rulesPath, rulesMarkdown, rulesExport)
}

func listRules(w, errW io.Writer, path string, markdown, export bool) error {
	m, table, err := loadTable(errW, path)
	if err != nil {
		return err
	}
	if export {
		return m.Encode(w)
	}

	rules := table.Rules()
	if markdown {
		fmt.Fprintln(w, render.RenderMarkdown(render.RulesMarkdown(m.Meta.Name, rules), 100))
		return nil
	}

	width := 0
	for _, r := range rules {
		width = max(width, runewidth.StringWidth(r.Name))
	}
	fmt.Fprintf(w, "%s (%d rules, digest %s)\n", m.Meta.Name, table.Len(), table.Digest())
	for i, r := range rules {
		line := fmt.Sprintf("  %d. %s  %-7s  %s", i+1, runewidth.FillRight(r.Name, width), r.Kind, r.DetectorKind())
		if len(r.Requires) > 0 {
			line += "  requires " + strings.Join(r.Requires, ", ")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func init() {
	rulesCmd.Flags().StringVar(&rulesPath, "rules", "", "Patchset manifest YAML to list instead of the built-in table")
	rulesCmd.Flags().BoolVar(&rulesMarkdown, "markdown", false, "Render the rule table as markdown")
	rulesCmd.Flags().BoolVar(&rulesExport, "export", false, "Print the rules as a patchset manifest")
}
