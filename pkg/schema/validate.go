package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ormasoftchile/catpatch/pkg/patch"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // location within the manifest (e.g., "rules[2].anchor")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether any entry is an error rather than a warning.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity != "warning" {
			return true
		}
	}
	return false
}

// ValidateFile performs the full 3-phase validation pipeline on a manifest file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (rule and table checks)
func ValidateFile(path string) (*Manifest, []*ValidationError) {
	m, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	return m, Validate(m)
}

// Validate runs the semantic and domain phases on a decoded manifest.
func Validate(m *Manifest) []*ValidationError {
	var all []*ValidationError
	all = append(all, validateSemantic(m)...)
	all = append(all, ValidateDomain(m)...)
	return all
}

var compiledSchema = sync.OnceValues(func() (*sjsonschema.Schema, error) {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}
	schemaDoc, err := sjsonschema.UnmarshalJSON(strings.NewReader(string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("patchset-v1.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("patchset-v1.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
})

// validateSemantic validates the manifest against the JSON Schema.
func validateSemantic(m *Manifest) []*ValidationError {
	fail := func(msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Message: msg, Severity: "error"}}
	}

	sch, err := compiledSchema()
	if err != nil {
		return fail(err.Error())
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fail(fmt.Sprintf("marshal for schema validation: %v", err))
	}
	doc, err := sjsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return fail(fmt.Sprintf("unmarshal document: %v", err))
	}

	if err := sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return fail(err.Error())
		}
		var errs []*ValidationError
		for _, cause := range flattenValidationErrors(ve) {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Path:     jsonPointerToPath(cause.InstanceLocation),
				Message:  fmt.Sprintf("%v", cause.ErrorKind),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// jsonPointerToPath renders ["rules","0","kind"] as "rules[0].kind".
func jsonPointerToPath(loc []string) string {
	var b strings.Builder
	for _, seg := range loc {
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors and warnings; empty means valid.
func ValidateDomain(m *Manifest) []*ValidationError {
	var errs []*ValidationError
	add := func(path, severity, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path,
			Message:  fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}

	if m.APIVersion != APIVersion {
		add("apiVersion", "error", "unrecognized apiVersion %q, expected %q", m.APIVersion, APIVersion)
	}
	if strings.TrimSpace(m.Meta.Name) == "" {
		add("meta.name", "error", "meta.name is required")
	}
	if m.Meta.Target == "" {
		add("meta.target", "warning", "no target document; pass --file when applying")
	}
	if len(m.Rules) == 0 {
		add("rules", "error", "manifest declares no rules")
		return errs
	}

	declared := make(map[string]int, len(m.Rules))
	for i, rs := range m.Rules {
		if prev, dup := declared[rs.Name]; dup && rs.Name != "" {
			add(fmt.Sprintf("rules[%d].name", i), "error", "duplicate rule name %q (first declared at rules[%d])", rs.Name, prev)
			continue
		}
		declared[rs.Name] = i
	}

	for i, rs := range m.Rules {
		for _, te := range patch.TableErrors(rs.PatchRule().Validate()) {
			add(fmt.Sprintf("rules[%d].%s", i, te.Field), "error", "%s", te.Message)
		}
		for _, dep := range rs.Requires {
			at, ok := declared[dep]
			switch {
			case dep == rs.Name:
				// reported by Validate
			case !ok:
				add(fmt.Sprintf("rules[%d].requires", i), "error", "unknown rule %q", dep)
			case at > i:
				add(fmt.Sprintf("rules[%d].requires", i), "warning", "requires %q which is declared later; rules will be reordered", dep)
			}
		}
	}

	if HasErrors(errs) {
		return errs
	}

	// Cycles only show up once the whole table is ordered.
	if _, err := m.Table(); err != nil {
		for _, te := range patch.TableErrors(err) {
			add("rules", "error", "%s", te.Message)
		}
		if len(patch.TableErrors(err)) == 0 {
			add("rules", "error", "%v", err)
		}
	}
	return errs
}
