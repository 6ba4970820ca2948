package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/catpatch/pkg/catalog"
	"github.com/ormasoftchile/catpatch/pkg/patch"
	"github.com/ormasoftchile/catpatch/pkg/store"
	"github.com/spf13/afero"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "catalog", "testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

func memStore(t *testing.T, files map[string]string) *store.Store {
	t.Helper()
	st := store.New(afero.NewMemMapFs())
	for name, text := range files {
		if err := st.Write(name, text); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestApplyDocument_PatchesCatalog(t *testing.T) {
	st := memStore(t, map[string]string{catalog.DefaultTarget: readFixture(t, "catalog.html")})
	tracePath := filepath.Join(t.TempDir(), "run.jsonl")

	var out bytes.Buffer
	if err := applyDocument(&out, &out, st, applyOptions{trace: tracePath}); err != nil {
		t.Fatalf("applyDocument: %v\n%s", err, out.String())
	}
	got, err := st.Read(catalog.DefaultTarget)
	if err != nil {
		t.Fatal(err)
	}
	if got != readFixture(t, "catalog.patched.html") {
		t.Error("catalog.html was not patched to the expected text")
	}
	if !strings.Contains(out.String(), "6 applied, 0 already present") {
		t.Errorf("summary: %s", out.String())
	}

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"run_start"`, `"rule_evaluated"`, `"document_written"`, `"status":"completed"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("trace missing %s", want)
		}
	}

	out.Reset()
	if err := applyDocument(&out, &out, st, applyOptions{strict: true}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(out.String(), "0 applied, 6 already present") {
		t.Errorf("second run summary: %s", out.String())
	}
}

func TestApplyDocument_DryRunDoesNotWrite(t *testing.T) {
	page := readFixture(t, "catalog.html")
	st := memStore(t, map[string]string{"page.html": page})

	var out bytes.Buffer
	if err := applyDocument(&out, &out, st, applyOptions{file: "page.html", dryRun: true}); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Read("page.html")
	if got != page {
		t.Error("dry run modified the document")
	}
	if !strings.Contains(out.String(), "+++ page.html") || !strings.Contains(out.String(), "+        const carouselTimers = new Map();") {
		t.Errorf("dry run should print the diff:\n%s", out.String())
	}
}

func TestApplyDocument_UnrelatedDocument(t *testing.T) {
	st := memStore(t, map[string]string{catalog.DefaultTarget: "<html></html>\n"})

	var out bytes.Buffer
	if err := applyDocument(&out, &out, st, applyOptions{quiet: true}); err != nil {
		t.Fatalf("default policy should be silent: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("quiet run printed %q", out.String())
	}
	got, _ := st.Read(catalog.DefaultTarget)
	if got != "<html></html>\n" {
		t.Errorf("text = %q", got)
	}

	err := applyDocument(&out, &out, st, applyOptions{strict: true, quiet: true})
	var drift *patch.DriftError
	if !errors.As(err, &drift) {
		t.Fatalf("strict run error = %v, want *patch.DriftError", err)
	}
	if len(drift.Rules) != len(catalog.Rules()) {
		t.Errorf("drifted rules = %d", len(drift.Rules))
	}
}

func TestApplyDocument_MissingDocument(t *testing.T) {
	st := memStore(t, nil)
	var out bytes.Buffer
	err := applyDocument(&out, &out, st, applyOptions{})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestApplyDocument_Manifest(t *testing.T) {
	st := memStore(t, map[string]string{"styles.css": "a\n.foo { color: red; }\nb\n"})

	var out bytes.Buffer
	opts := applyOptions{file: "styles.css", rules: "../../testdata/valid/foo-color.yaml"}
	if err := applyDocument(&out, &out, st, opts); err != nil {
		t.Fatalf("applyDocument: %v\n%s", err, out.String())
	}
	got, _ := st.Read("styles.css")
	if got != "a\n.foo { color: blue; }\nb\n" {
		t.Errorf("text = %q", got)
	}
}

func TestApplyDocument_InvalidManifest(t *testing.T) {
	st := memStore(t, nil)
	var out, errOut bytes.Buffer
	err := applyDocument(&out, &errOut, st, applyOptions{file: "x", rules: "../../testdata/invalid/bad-kind.yaml"})
	if err == nil {
		t.Fatal("expected error for invalid manifest")
	}
	if !strings.Contains(errOut.String(), "Validation failed") || !strings.Contains(errOut.String(), "at: rules[0].kind") {
		t.Errorf("stderr: %s", errOut.String())
	}
}

func TestCheckDocument(t *testing.T) {
	st := memStore(t, map[string]string{
		"fresh.html":   readFixture(t, "catalog.html"),
		"patched.html": readFixture(t, "catalog.patched.html"),
	})

	var out bytes.Buffer
	err := checkDocument(&out, &out, st, "fresh.html", "")
	if err == nil || !strings.Contains(err.Error(), "6 rule(s) pending") {
		t.Errorf("check fresh = %v", err)
	}
	if got, _ := st.Read("fresh.html"); got != readFixture(t, "catalog.html") {
		t.Error("check modified the document")
	}

	out.Reset()
	if err := checkDocument(&out, &out, st, "patched.html", ""); err != nil {
		t.Errorf("check patched = %v", err)
	}
	if !strings.Contains(out.String(), "✓ patched.html is up to date") {
		t.Errorf("output: %s", out.String())
	}
}

func TestListRules(t *testing.T) {
	var out bytes.Buffer
	if err := listRules(&out, &out, "", false, false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1+len(catalog.Rules()) {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "catalog-carousel (6 rules, digest "+catalog.Table().Digest()+")") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "3. carousel-css") || !strings.Contains(lines[3], "requires product-image-transition") {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestListRules_ExportRoundTrip(t *testing.T) {
	var out bytes.Buffer
	if err := listRules(&out, &out, "", false, true); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "carousel.yaml")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	var errOut bytes.Buffer
	m, table, err := loadTable(&errOut, path)
	if err != nil {
		t.Fatalf("exported manifest does not load: %v\n%s", err, errOut.String())
	}
	if m.Meta.Target != catalog.DefaultTarget {
		t.Errorf("target = %q", m.Meta.Target)
	}
	if table.Digest() != catalog.Table().Digest() {
		t.Error("exported manifest describes a different table")
	}
}

func TestListRules_Markdown(t *testing.T) {
	var out bytes.Buffer
	if err := listRules(&out, &out, "", true, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "catalog-carousel") {
		t.Errorf("markdown listing: %s", out.String())
	}
}

func TestResolveTarget(t *testing.T) {
	m := catalog.Manifest()
	if got, _ := resolveTarget("other.html", m); got != "other.html" {
		t.Errorf("flag should win, got %q", got)
	}
	if got, _ := resolveTarget("", m); got != catalog.DefaultTarget {
		t.Errorf("manifest target = %q", got)
	}
	m.Meta.Target = ""
	if _, err := resolveTarget("", m); err == nil {
		t.Error("expected error without any target")
	}
}

func TestRootCommandSurface(t *testing.T) {
	for _, name := range []string{"apply", "check", "rules", "validate", "schema", "step", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"file", "rules", "dry-run", "strict", "trace", "quiet"} {
		if rootCmd.Flags().Lookup(flag) == nil {
			t.Errorf("root command missing --%s", flag)
		}
		if applyCmd.Flags().Lookup(flag) == nil {
			t.Errorf("apply command missing --%s", flag)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	validateCmd.SetOut(&out)
	validateCmd.SetErr(&errOut)
	defer validateCmd.SetOut(nil)
	defer validateCmd.SetErr(nil)

	if err := runValidate(validateCmd, []string{"../../testdata/valid/timers.yaml"}); err != nil {
		t.Fatalf("validate: %v\n%s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "is valid (2 rules)") {
		t.Errorf("output: %s", out.String())
	}
	if !strings.Contains(errOut.String(), "⚠ [domain]") {
		t.Errorf("forward requires should warn: %s", errOut.String())
	}

	if err := runValidate(validateCmd, []string{"../../testdata/invalid/cycle.yaml"}); err == nil {
		t.Error("cycle manifest should fail validation")
	}
}

func TestSchemaExportCommand(t *testing.T) {
	var out bytes.Buffer
	schemaExportCmd.SetOut(&out)
	defer schemaExportCmd.SetOut(nil)

	if err := runSchemaExport(schemaExportCmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "patchset-v1.json") {
		t.Errorf("schema output: %.200s", out.String())
	}
}
