package patch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Table is a validated, ordered set of rules ready to apply.
type Table struct {
	rules     []Rule
	detectors []detector
	index     map[string]int
}

// NewTable validates rules and fixes their application order.
//
// Rules keep their declared order except that a rule is always placed after
// every rule it requires. Unknown dependencies and cycles are errors.
func NewTable(rules []Rule) (*Table, error) {
	var errs []error
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
		if r.Name != "" && seen[r.Name] {
			errs = append(errs, &TableError{Rule: r.Name, Field: "name", Message: "duplicate rule name"})
		}
		seen[r.Name] = true
	}
	for _, r := range rules {
		for _, dep := range r.Requires {
			if dep != r.Name && !seen[dep] {
				errs = append(errs, &TableError{Rule: r.Name, Field: "requires", Message: fmt.Sprintf("unknown rule %q", dep)})
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ordered, err := order(rules)
	if err != nil {
		return nil, err
	}

	t := &Table{
		rules:     ordered,
		detectors: make([]detector, len(ordered)),
		index:     make(map[string]int, len(ordered)),
	}
	for i, r := range ordered {
		d, err := newDetector(r)
		if err != nil {
			return nil, &TableError{Rule: r.Name, Field: "expr", Message: err.Error()}
		}
		t.detectors[i] = d
		t.index[r.Name] = i
	}
	return t, nil
}

// MustTable is NewTable for tables fixed at build time.
func MustTable(rules []Rule) *Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(err)
	}
	return t
}

// order performs a stable topological sort: on each pass the first rule in
// declared order whose dependencies are all placed is placed next.
func order(rules []Rule) ([]Rule, error) {
	placed := make(map[string]bool, len(rules))
	done := make([]bool, len(rules))
	out := make([]Rule, 0, len(rules))

	for len(out) < len(rules) {
		progress := false
		for i, r := range rules {
			if done[i] || !ready(r, placed) {
				continue
			}
			out = append(out, r)
			placed[r.Name] = true
			done[i] = true
			progress = true
			break
		}
		if !progress {
			var stuck []string
			for i, r := range rules {
				if !done[i] {
					stuck = append(stuck, r.Name)
				}
			}
			return nil, &TableError{Field: "requires", Message: fmt.Sprintf("dependency cycle among %s", strings.Join(stuck, ", "))}
		}
	}
	return out, nil
}

func ready(r Rule, placed map[string]bool) bool {
	for _, dep := range r.Requires {
		if !placed[dep] {
			return false
		}
	}
	return true
}

// Rules returns the rules in application order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len reports the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// Rule looks a rule up by name.
func (t *Table) Rule(name string) (Rule, bool) {
	i, ok := t.index[name]
	if !ok {
		return Rule{}, false
	}
	return t.rules[i], true
}

// Digest identifies the table's content: names, versions and literal text of
// every rule in application order.
func (t *Table) Digest() string {
	h := sha256.New()
	for _, r := range t.rules {
		fmt.Fprintf(h, "%s\x00%d\x00%s\x00", r.Name, r.Version, r.Kind)
		for _, s := range []string{r.Before, r.After, r.Anchor, r.Content, r.Marker, r.Expr} {
			fmt.Fprintf(h, "%d:%s", len(s), s)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Present reports whether the named rule's effect is present in text.
func (t *Table) Present(name, text string) (bool, error) {
	i, ok := t.index[name]
	if !ok {
		return false, fmt.Errorf("unknown rule %q", name)
	}
	return t.detectors[i](text)
}
