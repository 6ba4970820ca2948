// Package schema defines the YAML patchset manifest, which describes a patch
// table outside the binary, and provides strict YAML parsing.
package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/ormasoftchile/catpatch/pkg/patch"
	"gopkg.in/yaml.v3"
)

// APIVersion is the only manifest version this build understands.
const APIVersion = "patchset/v1"

// Manifest is the top-level patchset document.
type Manifest struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=patchset/v1"`
	Meta       Meta       `yaml:"meta"       json:"meta"       jsonschema:"required"`
	Rules      []RuleSpec `yaml:"rules"      json:"rules"      jsonschema:"required,minItems=1"`
}

// Meta names the patchset and the document it targets.
type Meta struct {
	Name        string `yaml:"name"                  json:"name"                  jsonschema:"required,minLength=1"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Target      string `yaml:"target,omitempty"      json:"target,omitempty"`
}

// RuleSpec is one rule as written in YAML. The detector is a marker when
// Marker is set, an expr-lang expression when Expr is set, and the rule's own
// after-block or content otherwise.
type RuleSpec struct {
	Name        string   `yaml:"name"                  json:"name"                  jsonschema:"required,pattern=^[a-z0-9][a-z0-9._-]*$"`
	Version     int      `yaml:"version,omitempty"     json:"version,omitempty"     jsonschema:"minimum=1"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        string   `yaml:"kind"                  json:"kind"                  jsonschema:"required,enum=replace,enum=insert"`
	Before      string   `yaml:"before,omitempty"      json:"before,omitempty"`
	After       string   `yaml:"after,omitempty"       json:"after,omitempty"`
	Anchor      string   `yaml:"anchor,omitempty"      json:"anchor,omitempty"`
	Content     string   `yaml:"content,omitempty"     json:"content,omitempty"`
	Marker      string   `yaml:"marker,omitempty"      json:"marker,omitempty"`
	Expr        string   `yaml:"expr,omitempty"        json:"expr,omitempty"`
	Requires    []string `yaml:"requires,omitempty"    json:"requires,omitempty"`
}

// LoadFile reads and parses a manifest YAML file with strict unknown-field
// rejection (yaml.v3 KnownFields).
func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a manifest from an io.Reader with strict unknown-field rejection.
func Load(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// Encode writes the manifest as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}

// PatchRules converts the manifest's rules, keeping declared order.
func (m *Manifest) PatchRules() []patch.Rule {
	rules := make([]patch.Rule, 0, len(m.Rules))
	for _, rs := range m.Rules {
		rules = append(rules, rs.PatchRule())
	}
	return rules
}

// Table builds the validated patch table described by the manifest.
func (m *Manifest) Table() (*patch.Table, error) {
	return patch.NewTable(m.PatchRules())
}

// PatchRule converts a single rule spec.
func (rs RuleSpec) PatchRule() patch.Rule {
	return patch.Rule{
		Name:        rs.Name,
		Version:     rs.Version,
		Description: rs.Description,
		Kind:        patch.Kind(rs.Kind),
		Before:      rs.Before,
		After:       rs.After,
		Anchor:      rs.Anchor,
		Content:     rs.Content,
		Marker:      rs.Marker,
		Expr:        rs.Expr,
		Requires:    append([]string(nil), rs.Requires...),
	}
}

// FromRules builds a manifest describing rules.
func FromRules(name, target, description string, rules []patch.Rule) *Manifest {
	m := &Manifest{
		APIVersion: APIVersion,
		Meta:       Meta{Name: name, Description: description, Target: target},
	}
	for _, r := range rules {
		m.Rules = append(m.Rules, RuleSpec{
			Name:        r.Name,
			Version:     r.Version,
			Description: r.Description,
			Kind:        string(r.Kind),
			Before:      r.Before,
			After:       r.After,
			Anchor:      r.Anchor,
			Content:     r.Content,
			Marker:      r.Marker,
			Expr:        r.Expr,
			Requires:    append([]string(nil), r.Requires...),
		})
	}
	return m
}
