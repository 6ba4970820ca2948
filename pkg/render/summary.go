package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/catpatch/pkg/patch"
)

// StatusGlyph returns the glyph for a rule status.
func StatusGlyph(s patch.Status) string {
	switch s {
	case patch.StatusApplied:
		return GlyphApplied
	case patch.StatusPresent:
		return GlyphPresent
	case patch.StatusNoMatch:
		return GlyphNoMatch
	case patch.StatusBlocked:
		return GlyphBlocked
	case patch.StatusUnstable:
		return GlyphUnstable
	default:
		return GlyphPending
	}
}

func statusStyle(s patch.Status) func(...string) string {
	switch s {
	case patch.StatusApplied:
		return styleApplied.Render
	case patch.StatusPresent:
		return stylePresent.Render
	case patch.StatusNoMatch:
		return styleNoMatch.Render
	case patch.StatusBlocked:
		return styleBlocked.Render
	case patch.StatusUnstable:
		return styleUnstable.Render
	default:
		return styleDim.Render
	}
}

// RuleLine formats one rule result, padding the rule name to width columns.
func RuleLine(r patch.RuleResult, width int) string {
	detail := string(r.Status)
	switch {
	case r.Changed():
		detail = fmt.Sprintf("%s (%+d bytes at %d)", r.Status, r.Added, r.Offset)
	case r.Status == patch.StatusBlocked:
		detail = fmt.Sprintf("%s (needs %s)", r.Status, r.Missing)
	}
	name := runewidth.FillRight(r.Rule, width)
	return statusStyle(r.Status)(fmt.Sprintf("%s %s  %s", StatusGlyph(r.Status), name, detail))
}

// Summary writes one line per rule followed by a totals line.
func Summary(w io.Writer, target string, res *patch.Result) {
	width := 0
	for _, r := range res.Rules {
		if rw := runewidth.StringWidth(r.Rule); rw > width {
			width = rw
		}
	}

	fmt.Fprintf(w, "%s\n", styleHeader.Render(target))
	for _, r := range res.Rules {
		fmt.Fprintf(w, "  %s\n", RuleLine(r, width))
	}
	fmt.Fprintf(w, "\n  %s\n", Totals(res))
}

// Totals summarizes a result in one line, e.g. "3 applied, 2 already present, 1 no match".
func Totals(res *patch.Result) string {
	parts := []string{
		fmt.Sprintf("%d applied", res.Count(patch.StatusApplied)),
		fmt.Sprintf("%d already present", res.Count(patch.StatusPresent)),
	}
	for _, s := range []patch.Status{patch.StatusNoMatch, patch.StatusBlocked, patch.StatusUnstable} {
		if n := res.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(string(s), "_", " ")))
		}
	}
	return strings.Join(parts, ", ")
}
