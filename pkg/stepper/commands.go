package stepper

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ormasoftchile/catpatch/pkg/patch"
	"github.com/ormasoftchile/catpatch/pkg/render"
)

const previewLimit = 400

func (s *Stepper) handleNext() error {
	if s.session.Done() {
		fmt.Fprintf(s.output, "All rules evaluated.\n")
		return nil
	}
	res, err := s.session.Next()
	if err != nil {
		return err
	}
	if err := s.tracer.EmitRuleEvaluated(res); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	fmt.Fprintf(s.output, "  %s\n", render.RuleLine(res, 0))
	return nil
}

func (s *Stepper) handleAll() error {
	for !s.session.Done() {
		if err := s.handleNext(); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.output, "All rules evaluated: %s\n", render.Totals(s.session.Result()))
	return nil
}

func (s *Stepper) handleStatus() {
	res := s.session.Result()
	for _, r := range res.Rules {
		fmt.Fprintf(s.output, "  %s\n", render.RuleLine(r, 0))
	}
	for _, r := range s.session.Remaining() {
		fmt.Fprintf(s.output, "  %s %s  pending\n", render.GlyphPending, r.Name)
	}
	changed := "unchanged"
	if res.Changed() {
		added, removed := render.DiffStat(res.Original, res.Text)
		changed = fmt.Sprintf("+%d -%d lines", added, removed)
	}
	fmt.Fprintf(s.output, "  %s: %s\n", s.path, changed)
}

func (s *Stepper) handleDiff() {
	out := render.Diff(s.path, s.session.Original(), s.session.Text(), 3)
	if out == "" {
		fmt.Fprintf(s.output, "No changes.\n")
		return
	}
	fmt.Fprint(s.output, out)
}

func (s *Stepper) handleShow(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(s.output, "Usage: show <rule>\n")
		return
	}
	r, ok := s.table.Rule(parts[1])
	if !ok {
		fmt.Fprintf(s.output, "Unknown rule: %q.\n", parts[1])
		return
	}
	fmt.Fprintf(s.output, "%s (v%d, %s)\n", r.Name, r.Version, r.Kind)
	if r.Description != "" {
		fmt.Fprintf(s.output, "  %s\n", r.Description)
	}
	fmt.Fprintf(s.output, "  detector: %s\n", r.DetectorKind())
	if len(r.Requires) > 0 {
		fmt.Fprintf(s.output, "  requires: %s\n", strings.Join(r.Requires, ", "))
	}
	present, err := s.table.Present(r.Name, s.session.Text())
	if err != nil {
		fmt.Fprintf(s.output, "  present:  error: %v\n", err)
	} else {
		fmt.Fprintf(s.output, "  present:  %t\n", present)
	}
	switch r.Kind {
	case patch.KindInsert:
		fmt.Fprintf(s.output, "  anchor:\n%s\n  content:\n%s\n", preview(r.Anchor), preview(r.Content))
	default:
		fmt.Fprintf(s.output, "  before:\n%s\n  after:\n%s\n", preview(r.Before), preview(r.After))
	}
}

func (s *Stepper) handleWrite() error {
	text := s.session.Text()
	if err := s.store.Write(s.path, text); err != nil {
		return err
	}
	s.written = text
	if err := s.tracer.EmitDocumentWritten(s.path, len(text)); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	fmt.Fprintf(s.output, "Wrote %d bytes to %s.\n", len(text), s.path)
	return nil
}

func (s *Stepper) handleHelp() {
	fmt.Fprintf(s.output, `Commands:
  next, n          Apply the next rule
  all, a           Apply every remaining rule
  status, s        Show rule results so far
  diff, d          Show the diff against the original document
  show <rule>      Show a rule's definition and whether it is present
  write, w         Write the current text back to the document
  help, h, ?       Show this help
  quit, q          Exit the stepper
`)
}

// preview indents text for display, truncating long blocks.
func preview(text string) string {
	if len(text) > previewLimit {
		cut := previewLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    | " + l
	}
	return strings.Join(lines, "\n")
}
