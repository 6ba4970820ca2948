package patch

import (
	"errors"
	"fmt"
	"strings"
)

// TableError describes a problem with a rule or with the table as a whole.
type TableError struct {
	Rule    string // empty for table-wide problems
	Field   string // name, kind, before, after, anchor, content, marker, expr, requires
	Message string
}

func (e *TableError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("patch table: %s", e.Message)
	}
	return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Field, e.Message)
}

// TableErrors flattens err into the TableErrors it carries, following both
// single and multi-error wrapping.
func TableErrors(err error) []*TableError {
	switch e := err.(type) {
	case nil:
		return nil
	case *TableError:
		return []*TableError{e}
	case interface{ Unwrap() []error }:
		var out []*TableError
		for _, inner := range e.Unwrap() {
			out = append(out, TableErrors(inner)...)
		}
		return out
	}
	var te *TableError
	if errors.As(err, &te) {
		return []*TableError{te}
	}
	return nil
}

// DriftError is returned by strict runs when rules neither found their
// effect already present nor managed to apply it.
type DriftError struct {
	Rules []RuleResult
}

func (e *DriftError) Error() string {
	parts := make([]string, 0, len(e.Rules))
	for _, r := range e.Rules {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Rule, r.Status))
	}
	return fmt.Sprintf("%d rule(s) did not take effect: %s", len(e.Rules), strings.Join(parts, ", "))
}
