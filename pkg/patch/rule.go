// Package patch applies ordered tables of guarded text substitutions to a
// document. Every rule carries a detector that reports whether its effect is
// already present, so running a table twice never duplicates content.
package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Kind selects the action a rule performs.
type Kind string

const (
	// KindReplace swaps a literal before-block for a literal after-block.
	KindReplace Kind = "replace"
	// KindInsert splices literal content immediately after a literal anchor.
	KindInsert Kind = "insert"
)

// DetectorKind selects how a rule decides that its effect is already present.
type DetectorKind string

const (
	// DetectVerbatim looks for the rule's target fragment. A replace rule is
	// present when its after-block occurs and its before-block no longer does;
	// an insert rule is present when its content occurs.
	DetectVerbatim DetectorKind = "verbatim"
	// DetectMarker looks for a short unique marker string.
	DetectMarker DetectorKind = "marker"
	// DetectExpr evaluates a boolean expr-lang expression over the document.
	DetectExpr DetectorKind = "expr"
)

// Rule is one named entry of a patch table.
type Rule struct {
	Name        string
	Version     int
	Description string
	Kind        Kind

	// Replace rules.
	Before string
	After  string

	// Insert rules.
	Anchor  string
	Content string

	// Detector settings. Detect defaults to DetectMarker when Marker is set,
	// DetectExpr when Expr is set and DetectVerbatim otherwise.
	Detect DetectorKind
	Marker string
	Expr   string

	// Requires names rules whose effect must be present before this one fires.
	Requires []string
}

// Target returns the fragment the rule leaves behind in the document.
func (r Rule) Target() string {
	if r.Kind == KindInsert {
		return r.Content
	}
	return r.After
}

// DetectorKind resolves the effective detector for the rule.
func (r Rule) DetectorKind() DetectorKind {
	if r.Detect != "" {
		return r.Detect
	}
	switch {
	case r.Expr != "":
		return DetectExpr
	case r.Marker != "":
		return DetectMarker
	default:
		return DetectVerbatim
	}
}

// Validate checks the fields of a single rule. Table-level concerns such as
// duplicate names and dependency cycles are checked by NewTable.
func (r Rule) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &TableError{Rule: r.Name, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.Name) == "" {
		fail("name", "rule name is required")
	}
	if r.Version < 0 {
		fail("version", "version must not be negative, got %d", r.Version)
	}

	switch r.Kind {
	case KindReplace:
		if r.Before == "" {
			fail("before", "replace rule needs a before-block")
		}
		if r.After == "" {
			fail("after", "replace rule needs an after-block")
		}
		if r.Anchor != "" || r.Content != "" {
			fail("anchor", "replace rule must not set anchor or content")
		}
		if r.Before != "" && r.Before == r.After {
			fail("after", "after-block is identical to the before-block")
		}
	case KindInsert:
		if r.Anchor == "" {
			fail("anchor", "insert rule needs an anchor")
		}
		if r.Content == "" {
			fail("content", "insert rule needs content")
		}
		if r.Before != "" || r.After != "" {
			fail("before", "insert rule must not set before or after")
		}
	default:
		fail("kind", "unknown kind %q, expected %q or %q", r.Kind, KindReplace, KindInsert)
	}

	switch r.DetectorKind() {
	case DetectVerbatim:
		if r.Marker != "" || r.Expr != "" {
			fail("detect", "verbatim detector takes no marker or expr")
		}
	case DetectMarker:
		if r.Marker == "" {
			fail("marker", "marker detector needs a marker")
		} else if target := r.Target(); target != "" && !strings.Contains(target, r.Marker) {
			// the detector could never see the action's result
			fail("marker", "marker %q does not occur in the rule's %s", r.Marker, targetField(r.Kind))
		}
		if r.Expr != "" {
			fail("expr", "marker detector takes no expr")
		}
	case DetectExpr:
		if r.Expr == "" {
			fail("expr", "expr detector needs an expression")
		} else if _, err := compileExpr(r.Expr); err != nil {
			fail("expr", "%v", err)
		}
		if r.Marker != "" {
			fail("marker", "expr detector takes no marker")
		}
	default:
		fail("detect", "unknown detector %q", r.Detect)
	}

	for _, dep := range r.Requires {
		if dep == r.Name {
			fail("requires", "rule requires itself")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func targetField(k Kind) string {
	if k == KindInsert {
		return "content"
	}
	return "after-block"
}

// detector reports whether a rule's effect is present in text.
type detector func(text string) (bool, error)

func newDetector(r Rule) (detector, error) {
	switch r.DetectorKind() {
	case DetectMarker:
		marker := r.Marker
		return func(text string) (bool, error) {
			return strings.Contains(text, marker), nil
		}, nil
	case DetectExpr:
		program, err := compileExpr(r.Expr)
		if err != nil {
			return nil, err
		}
		return func(text string) (bool, error) {
			return runExpr(program, text)
		}, nil
	default:
		if r.Kind == KindReplace {
			before, after := r.Before, r.After
			return func(text string) (bool, error) {
				return replaced(text, before, after), nil
			}, nil
		}
		target := r.Target()
		return func(text string) (bool, error) {
			return strings.Contains(text, target), nil
		}, nil
	}
}

// replaced reports whether text holds after and no remaining before. When
// after contains before, occurrences inside an after-block do not count.
func replaced(text, before, after string) bool {
	if !strings.Contains(text, after) {
		return false
	}
	if !strings.Contains(after, before) {
		return !strings.Contains(text, before)
	}
	for _, piece := range strings.Split(text, after) {
		if strings.Contains(piece, before) {
			return false
		}
	}
	return true
}

// exprEnv is the environment detector expressions are compiled against.
// Expressions see the current document as `text`, e.g.
// `text contains "const carouselTimers"`.
func exprEnv(text string) map[string]any {
	return map[string]any{"text": text}
}

func compileExpr(source string) (*vm.Program, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv("")), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile detector %q: %w", source, err)
	}
	return program, nil
}

func runExpr(program *vm.Program, text string) (bool, error) {
	output, err := expr.Run(program, exprEnv(text))
	if err != nil {
		return false, fmt.Errorf("eval detector: %w", err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("detector did not return bool (got %T)", output)
	}
	return result, nil
}
