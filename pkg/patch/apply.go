package patch

import (
	"fmt"
	"strings"
)

// Status is the outcome of one rule in one run.
type Status string

const (
	// StatusApplied means the action fired and the text changed.
	StatusApplied Status = "applied"
	// StatusPresent means the detector found the effect already in place.
	StatusPresent Status = "already_present"
	// StatusNoMatch means neither the effect nor the before-block/anchor was found.
	StatusNoMatch Status = "no_match"
	// StatusBlocked means a required rule's effect is absent.
	StatusBlocked Status = "blocked"
	// StatusUnstable means the action fired but the detector still reports
	// the effect absent, so a second run would fire it again.
	StatusUnstable Status = "unstable"
)

// RuleResult records what happened to one rule.
type RuleResult struct {
	Rule    string `json:"rule"`
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`
	Offset  int    `json:"offset"` // byte offset of the edit, -1 when nothing changed
	Added   int    `json:"added"`  // net bytes added by the edit
	Missing string `json:"missing,omitempty"`
}

// Changed reports whether the rule modified the text.
func (r RuleResult) Changed() bool {
	return r.Status == StatusApplied || r.Status == StatusUnstable
}

// Result is the outcome of applying a table to one document.
type Result struct {
	Original string
	Text     string
	Rules    []RuleResult
}

// Changed reports whether the final text differs from the input.
func (r *Result) Changed() bool {
	return r.Text != r.Original
}

// Count returns the number of rules that ended with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, rr := range r.Rules {
		if rr.Status == s {
			n++
		}
	}
	return n
}

// Drifted returns the rules that neither found nor durably applied their effect.
func (r *Result) Drifted() []RuleResult {
	var out []RuleResult
	for _, rr := range r.Rules {
		switch rr.Status {
		case StatusNoMatch, StatusBlocked, StatusUnstable:
			out = append(out, rr)
		}
	}
	return out
}

// Options tune a run.
type Options struct {
	// Strict turns drifted rules into a *DriftError. The default leaves a
	// missing before-block or anchor as a silent no-op.
	Strict bool
}

// Apply runs every rule against text in order and returns the final text.
// A detector error aborts the run; in strict mode drifted rules are reported
// as a *DriftError alongside the (still valid) result.
func (t *Table) Apply(text string, opts Options) (*Result, error) {
	s := t.NewSession(text)
	for !s.Done() {
		if _, err := s.Next(); err != nil {
			return nil, err
		}
	}
	res := s.Result()
	if opts.Strict {
		if drifted := res.Drifted(); len(drifted) > 0 {
			return res, &DriftError{Rules: drifted}
		}
	}
	return res, nil
}

// Plan reports the rules that would change text, without strict checks.
func (t *Table) Plan(text string) ([]RuleResult, error) {
	res, err := t.Apply(text, Options{})
	if err != nil {
		return nil, err
	}
	var pending []RuleResult
	for _, r := range res.Rules {
		if r.Changed() {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// Session applies a table one rule at a time.
type Session struct {
	table    *Table
	original string
	text     string
	pos      int
	present  map[string]bool
	results  []RuleResult
}

// NewSession starts a run of t over text.
func (t *Table) NewSession(text string) *Session {
	return &Session{
		table:    t,
		original: text,
		text:     text,
		present:  make(map[string]bool, len(t.rules)),
	}
}

// Done reports whether every rule has been evaluated.
func (s *Session) Done() bool { return s.pos >= len(s.table.rules) }

// Text returns the current document text.
func (s *Session) Text() string { return s.text }

// Original returns the text the session started from.
func (s *Session) Original() string { return s.original }

// Remaining returns the rules not yet evaluated, in order.
func (s *Session) Remaining() []Rule {
	return s.table.Rules()[s.pos:]
}

// Result snapshots the session so far.
func (s *Session) Result() *Result {
	rules := make([]RuleResult, len(s.results))
	copy(rules, s.results)
	return &Result{Original: s.original, Text: s.text, Rules: rules}
}

// Next evaluates the next rule and advances the session.
func (s *Session) Next() (RuleResult, error) {
	if s.Done() {
		return RuleResult{}, fmt.Errorf("no rules left")
	}
	r := s.table.rules[s.pos]
	detect := s.table.detectors[s.pos]
	s.pos++

	res, err := s.step(r, detect)
	if err != nil {
		return RuleResult{}, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	s.results = append(s.results, res)
	return res, nil
}

func (s *Session) step(r Rule, detect detector) (RuleResult, error) {
	res := RuleResult{Rule: r.Name, Kind: r.Kind, Offset: -1}

	present, err := detect(s.text)
	if err != nil {
		return res, err
	}
	if present {
		s.present[r.Name] = true
		res.Status = StatusPresent
		return res, nil
	}

	for _, dep := range r.Requires {
		if !s.present[dep] {
			res.Status = StatusBlocked
			res.Missing = dep
			return res, nil
		}
	}

	next, offset, ok := act(r, s.text)
	if !ok {
		res.Status = StatusNoMatch
		return res, nil
	}
	res.Offset = offset
	res.Added = len(next) - len(s.text)
	s.text = next

	present, err = detect(s.text)
	if err != nil {
		return res, err
	}
	if !present {
		res.Status = StatusUnstable
		return res, nil
	}
	s.present[r.Name] = true
	res.Status = StatusApplied
	return res, nil
}

// act performs the rule's edit. A replace rule rewrites every occurrence of
// its before-block, an insert rule splices after the first occurrence of its
// anchor. offset is the position of the first edit; ok is false when the
// before-block or anchor does not occur in text.
func act(r Rule, text string) (next string, offset int, ok bool) {
	switch r.Kind {
	case KindReplace:
		next, offset = replaceAll(text, r.Before, r.After)
		return next, offset, offset >= 0
	case KindInsert:
		i := strings.Index(text, r.Anchor)
		if i < 0 {
			return text, -1, false
		}
		at := i + len(r.Anchor)
		return text[:at] + r.Content + text[at:], at, true
	}
	return text, -1, false
}

// replaceAll replaces every occurrence of before with after, skipping
// occurrences inside an existing after-block when after contains before.
// offset is -1 when nothing was replaced.
func replaceAll(text, before, after string) (string, int) {
	if !strings.Contains(after, before) {
		i := strings.Index(text, before)
		if i < 0 {
			return text, -1
		}
		return strings.ReplaceAll(text, before, after), i
	}
	pieces := strings.Split(text, after)
	offset, pos := -1, 0
	for i, piece := range pieces {
		if j := strings.Index(piece, before); j >= 0 && offset < 0 {
			offset = pos + j
		}
		pieces[i] = strings.ReplaceAll(piece, before, after)
		pos += len(piece) + len(after)
	}
	if offset < 0 {
		return text, -1
	}
	return strings.Join(pieces, after), offset
}
