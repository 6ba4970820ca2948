package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ormasoftchile/catpatch/pkg/patch"
)

// RulesMarkdown describes a rule table as a markdown document.
func RulesMarkdown(title string, rules []patch.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("| # | Rule | Version | Kind | Detector | Requires | Description |\n")
	b.WriteString("|---|------|---------|------|----------|----------|-------------|\n")
	for i, r := range rules {
		requires := "-"
		if len(r.Requires) > 0 {
			requires = strings.Join(r.Requires, ", ")
		}
		fmt.Fprintf(&b, "| %d | `%s` | %d | %s | %s | %s | %s |\n",
			i+1, r.Name, r.Version, r.Kind, detectorLabel(r), requires, escapeCell(r.Description))
	}
	return b.String()
}

func detectorLabel(r patch.Rule) string {
	switch r.DetectorKind() {
	case patch.DetectMarker:
		return fmt.Sprintf("marker `%s`", r.Marker)
	case patch.DetectExpr:
		return fmt.Sprintf("expr `%s`", r.Expr)
	default:
		return "verbatim"
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderMarkdown converts markdown to styled terminal output, wrapping at
// width columns (0 disables wrapping). Falls back to the raw input if glamour
// is unavailable or rendering fails.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
