// Package render formats patch runs for the terminal: per-rule summaries,
// unified line diffs and the rule listing.
package render

import "github.com/charmbracelet/lipgloss"

// Rule status glyphs convey meaning without relying on color alone.
const (
	GlyphApplied  = "✓"
	GlyphPresent  = "="
	GlyphNoMatch  = "·"
	GlyphBlocked  = "⏸"
	GlyphUnstable = "!"
	GlyphPending  = "○"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	styleApplied  = lipgloss.NewStyle().Foreground(colorGreen)
	stylePresent  = lipgloss.NewStyle().Faint(true)
	styleNoMatch  = lipgloss.NewStyle().Foreground(colorYellow)
	styleBlocked  = lipgloss.NewStyle().Foreground(colorYellow)
	styleUnstable = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)

	styleAdd  = lipgloss.NewStyle().Foreground(colorGreen)
	styleDel  = lipgloss.NewStyle().Foreground(colorRed)
	styleHunk = lipgloss.NewStyle().Foreground(colorCyan)
)
