package render

import (
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

type diffLine struct {
	op      diffpatch.Operation
	text    string
	oldLine int
	newLine int
	noEOL   bool
}

// lineDiff computes a line-level diff of before and after.
func lineDiff(before, after string) []diffLine {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []diffLine
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		parts := splitLines(d.Text)
		for i, text := range parts {
			noEOL := i == len(parts)-1 && !strings.HasSuffix(d.Text, "\n")
			out = append(out, diffLine{op: d.Type, text: text, oldLine: oldLine, newLine: newLine, noEOL: noEOL})
			switch d.Type {
			case diffpatch.DiffEqual:
				oldLine++
				newLine++
			case diffpatch.DiffDelete:
				oldLine++
			case diffpatch.DiffInsert:
				newLine++
			}
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\n")
	}
	return lines
}

// Diff renders a unified line diff of before and after with the given number
// of context lines around each change. Identical inputs render as "".
func Diff(name, before, after string, context int) string {
	if before == after {
		return ""
	}
	if context < 0 {
		context = 0
	}
	lines := lineDiff(before, after)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", styleDel.Render("--- "+name), styleAdd.Render("+++ "+name))

	i := 0
	for i < len(lines) {
		for i < len(lines) && lines[i].op == diffpatch.DiffEqual {
			i++
		}
		if i >= len(lines) {
			break
		}
		start := max(0, i-context)
		end := i
		for end < len(lines) {
			if lines[end].op != diffpatch.DiffEqual {
				end++
				continue
			}
			run := end
			for run < len(lines) && lines[run].op == diffpatch.DiffEqual {
				run++
			}
			if run < len(lines) && run-end <= 2*context {
				end = run
				continue
			}
			end = min(len(lines), end+context)
			break
		}
		writeHunk(&b, lines[start:end])
		i = end
	}
	return b.String()
}

func writeHunk(b *strings.Builder, hunk []diffLine) {
	oldCount, newCount := 0, 0
	for _, l := range hunk {
		if l.op != diffpatch.DiffInsert {
			oldCount++
		}
		if l.op != diffpatch.DiffDelete {
			newCount++
		}
	}
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk[0].oldLine, oldCount, hunk[0].newLine, newCount)
	fmt.Fprintf(b, "%s\n", styleHunk.Render(header))
	for _, l := range hunk {
		switch l.op {
		case diffpatch.DiffInsert:
			fmt.Fprintf(b, "%s\n", styleAdd.Render("+"+l.text))
		case diffpatch.DiffDelete:
			fmt.Fprintf(b, "%s\n", styleDel.Render("-"+l.text))
		default:
			fmt.Fprintf(b, " %s\n", l.text)
		}
		if l.noEOL {
			fmt.Fprintf(b, "%s\n", styleDim.Render(`\ No newline at end of file`))
		}
	}
}

// DiffStat counts added and removed lines between before and after.
func DiffStat(before, after string) (added, removed int) {
	for _, l := range lineDiff(before, after) {
		switch l.op {
		case diffpatch.DiffInsert:
			added++
		case diffpatch.DiffDelete:
			removed++
		}
	}
	return added, removed
}
