package patch

import (
	"strings"
	"testing"
)

func TestNewTable_ReordersByRequires(t *testing.T) {
	rules := []Rule{
		{Name: "c", Kind: KindInsert, Anchor: "b", Content: "c", Requires: []string{"b"}},
		{Name: "a", Kind: KindReplace, Before: "x", After: "a"},
		{Name: "b", Kind: KindInsert, Anchor: "a", Content: "b", Requires: []string{"a"}},
		{Name: "d", Kind: KindReplace, Before: "y", After: "d"},
	}
	table, err := NewTable(rules)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	var names []string
	for _, r := range table.Rules() {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "a,b,c,d" {
		t.Errorf("order = %s, want a,b,c,d", got)
	}

	// A misordered table still patches in one pass.
	res, err := table.Apply("x", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "abc" {
		t.Errorf("text = %q, want abc", res.Text)
	}
}

func TestNewTable_KeepsDeclaredOrderWithoutRequires(t *testing.T) {
	table := MustTable([]Rule{
		{Name: "z", Kind: KindReplace, Before: "1", After: "2"},
		{Name: "y", Kind: KindReplace, Before: "2", After: "3"},
	})
	rules := table.Rules()
	if rules[0].Name != "z" || rules[1].Name != "y" {
		t.Errorf("order = %s,%s", rules[0].Name, rules[1].Name)
	}
}

func TestNewTable_Errors(t *testing.T) {
	cases := []struct {
		name  string
		rules []Rule
		want  string
	}{
		{
			name:  "missing name",
			rules: []Rule{{Kind: KindReplace, Before: "a", After: "b"}},
			want:  "rule name is required",
		},
		{
			name:  "unknown kind",
			rules: []Rule{{Name: "r", Kind: "delete", Before: "a"}},
			want:  `unknown kind "delete"`,
		},
		{
			name:  "replace without after",
			rules: []Rule{{Name: "r", Kind: KindReplace, Before: "a"}},
			want:  "needs an after-block",
		},
		{
			name:  "replace with identical blocks",
			rules: []Rule{{Name: "r", Kind: KindReplace, Before: "a", After: "a"}},
			want:  "identical",
		},
		{
			name:  "insert without anchor",
			rules: []Rule{{Name: "r", Kind: KindInsert, Content: "x"}},
			want:  "needs an anchor",
		},
		{
			name:  "insert with before",
			rules: []Rule{{Name: "r", Kind: KindInsert, Anchor: "a", Content: "x", Before: "b"}},
			want:  "must not set before",
		},
		{
			name:  "marker outside content",
			rules: []Rule{{Name: "r", Kind: KindInsert, Anchor: "a", Content: "const x = 1;", Marker: "const y"}},
			want:  `marker "const y" does not occur`,
		},
		{
			name:  "bad expression",
			rules: []Rule{{Name: "r", Kind: KindInsert, Anchor: "a", Content: "x", Expr: "text +"}},
			want:  "compile detector",
		},
		{
			name:  "non-bool expression",
			rules: []Rule{{Name: "r", Kind: KindInsert, Anchor: "a", Content: "x", Expr: "len(text)"}},
			want:  "compile detector",
		},
		{
			name: "duplicate names",
			rules: []Rule{
				{Name: "r", Kind: KindReplace, Before: "a", After: "b"},
				{Name: "r", Kind: KindReplace, Before: "c", After: "d"},
			},
			want: "duplicate rule name",
		},
		{
			name:  "unknown dependency",
			rules: []Rule{{Name: "r", Kind: KindReplace, Before: "a", After: "b", Requires: []string{"ghost"}}},
			want:  `unknown rule "ghost"`,
		},
		{
			name:  "self dependency",
			rules: []Rule{{Name: "r", Kind: KindReplace, Before: "a", After: "b", Requires: []string{"r"}}},
			want:  "requires itself",
		},
		{
			name: "cycle",
			rules: []Rule{
				{Name: "a", Kind: KindReplace, Before: "1", After: "2", Requires: []string{"b"}},
				{Name: "b", Kind: KindReplace, Before: "3", After: "4", Requires: []string{"a"}},
			},
			want: "dependency cycle among a, b",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.rules)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.want)
			}
			if len(TableErrors(err)) == 0 {
				t.Errorf("TableErrors(%v) is empty", err)
			}
		})
	}
}

func TestTableErrors_Fields(t *testing.T) {
	_, err := NewTable([]Rule{{Name: "r", Kind: KindReplace}})
	errs := TableErrors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
	fields := map[string]bool{}
	for _, e := range errs {
		if e.Rule != "r" {
			t.Errorf("rule = %q", e.Rule)
		}
		fields[e.Field] = true
	}
	if !fields["before"] || !fields["after"] {
		t.Errorf("fields = %v, want before and after", fields)
	}
}

func TestTable_Digest(t *testing.T) {
	a := MustTable([]Rule{fooRule()})
	b := MustTable([]Rule{fooRule()})
	if a.Digest() != b.Digest() {
		t.Error("equal tables should share a digest")
	}
	changed := fooRule()
	changed.After = ".foo { color: green; }"
	if a.Digest() == MustTable([]Rule{changed}).Digest() {
		t.Error("digest should change with rule content")
	}
	if len(a.Digest()) != 16 {
		t.Errorf("digest length = %d", len(a.Digest()))
	}
}

func TestTable_LookupAndPresent(t *testing.T) {
	table := MustTable([]Rule{fooRule()})
	if _, ok := table.Rule("foo-color"); !ok {
		t.Error("Rule(foo-color) not found")
	}
	if _, ok := table.Rule("nope"); ok {
		t.Error("Rule(nope) found")
	}
	ok, err := table.Present("foo-color", "x .foo { color: blue; } y")
	if err != nil || !ok {
		t.Errorf("Present = %v, %v", ok, err)
	}
	if _, err := table.Present("nope", ""); err == nil {
		t.Error("Present on unknown rule should fail")
	}
}

func TestMustTable_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustTable should panic on an invalid table")
		}
	}()
	MustTable([]Rule{{Name: "bad"}})
}
