package parser

import (
	"testing"
)

func TestNormalizeDocstring(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"""One line."""`, "One line."},
		{`'''also one'''`, "also one"},
		{`'simple'`, "simple"},
		{`r"""raw doc"""`, "raw doc"},
		{"\"\"\"multi\nline\tdoc\"\"\"", "multi line doc"},
		{"'''a  lot   of    spaces'''", "a lot of spaces"},
		{`""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeDocstring(tt.input)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if again := NormalizeDocstring(got); again != got {
				t.Errorf("not idempotent: %q became %q", got, again)
			}
		})
	}
}

func TestNameString(t *testing.T) {
	n := &Name{Names: []string{"os", "path", "join"}}
	if got := n.String(); got != "os.path.join" {
		t.Errorf("got %q, want %q", got, "os.path.join")
	}
}

func TestNameEqual(t *testing.T) {
	a := &Name{Simple: Simple{Indent: 1, StartLine: 3}, Names: []string{"x", "y"}}
	b := &Name{Simple: Simple{Indent: 1, StartLine: 3}, Names: []string{"x", "y"}}
	c := &Name{Simple: Simple{Indent: 1, StartLine: 4}, Names: []string{"x", "y"}}
	d := &Name{Simple: Simple{Indent: 1, StartLine: 3}, Names: []string{"x"}}

	if !a.Equal(b) {
		t.Error("equal names compared unequal")
	}
	if a.Equal(c) {
		t.Error("different lines compared equal")
	}
	if a.Equal(d) {
		t.Error("different segments compared equal")
	}
	if a.Equal(nil) {
		t.Error("nil compared equal")
	}
}

func TestImportNames(t *testing.T) {
	path := &Name{Names: []string{"os", "path"}}
	alias := &Name{Names: []string{"p"}}

	tests := []struct {
		name string
		imp  *Import
		want []string
	}{
		{"plain", &Import{Path: path}, []string{"os.path"}},
		{"aliased", &Import{Path: path, Alias: alias}, []string{"p"}},
		{"star", &Import{From: path, Star: true}, nil},
		{"empty", &Import{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameStrings(tt.imp.Names())
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFlowChainParent(t *testing.T) {
	module := &Scope{}
	head := &Flow{Keyword: "try"}
	AddStatement(module, head)

	except := &Flow{Keyword: "except"}
	fin := &Flow{Keyword: "finally"}

	if got := head.SetNext(except); got != except {
		t.Fatalf("set next: got %v, want except", got)
	}
	// appending to the head walks to the chain's end
	if got := head.SetNext(fin); got != fin {
		t.Fatalf("set next: got %v, want finally", got)
	}

	if head.Next != except || except.Next != fin {
		t.Error("chain order broken")
	}
	for _, f := range []*Flow{except, fin} {
		if f.Record().Parent != ScopeNode(module) {
			t.Errorf("%s parent: got %v, want module", f.Keyword, f.Record().Parent)
		}
	}
	// continuations never appear as siblings
	if len(module.Statements) != 1 {
		t.Errorf("statements: got %d, want 1", len(module.Statements))
	}
}

func TestAttachmentIntegrity(t *testing.T) {
	module := parse(t, "import os\ndef f(a):\n    x = 1\nclass C:\n    pass\n")

	for _, sub := range module.Subscopes {
		if sub.Record().Parent != ScopeNode(module) {
			t.Errorf("subscope parent: got %v, want module", sub.Record().Parent)
		}
	}
	for _, stmt := range module.Statements {
		if stmt.Record().Parent != ScopeNode(module) {
			t.Errorf("statement parent: got %v, want module", stmt.Record().Parent)
		}
	}
	for _, imp := range module.Imports {
		if imp.Parent != ScopeNode(module) {
			t.Errorf("import parent: got %v, want module", imp.Parent)
		}
	}

	fn := firstFunction(t, module)
	for _, stmt := range fn.Statements {
		if stmt.Record().Parent != ScopeNode(fn) {
			t.Errorf("nested statement parent: got %v, want f", stmt.Record().Parent)
		}
	}

	// walking parents always terminates at the root
	var node ScopeNode = firstClass(t, module)
	for steps := 0; node != nil; steps++ {
		if steps > 10 {
			t.Fatal("parent chain does not terminate")
		}
		node = node.Record().Parent
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"", true},
		{"# only a comment\n", true},
		{"'''just a docstring'''\n", true},
		{"pass\n", true},
		{"x = 1\n", false},
		{"import os\n", false},
		{"def f():\n    pass\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			module := parse(t, tt.source)
			if got := module.IsEmpty(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFunctionDefinedNamesPreferWritten(t *testing.T) {
	// a parameter with a default is written, a bare one only read
	module := parse(t, "def f(a, b=1):\n    pass\n")

	fn := firstFunction(t, module)
	got := nameStrings(fn.DefinedNames())
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestScopeDefinedNamesDescendIntoFlows(t *testing.T) {
	module := parse(t, "if cond:\n    inner = 1\nouter = 2\n")

	got := module.DefinedNames()
	if !containsName(got, "inner") || !containsName(got, "outer") {
		t.Errorf("got %v, want inner and outer", nameStrings(got))
	}
}

func TestLines(t *testing.T) {
	module := parse(t, "def f():\n    pass\n")

	fn := firstFunction(t, module)
	start, end := fn.Lines()
	if start != 1 || end != 3 {
		t.Errorf("got %d..%d, want 1..3", start, end)
	}
}
