package format

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/LH183523/jedi/python/parser"
)

func render(t *testing.T, source string) string {
	t.Helper()
	res := parser.Parse([]byte(source))
	var buf bytes.Buffer
	if err := NewPythonEncoder(&buf).Encode(res.Module); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestPythonEncoder(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"function",
			"def f(a, b):\n    return a+b\n",
			"def f(a,b):\n    return a+b\n",
		},
		{
			"imports",
			"import os, sys as s\n",
			"import os\nimport sys as s\n",
		},
		{
			"star import",
			"from pkg import *\n",
			"from pkg import *\n",
		},
		{
			"from import alias",
			"from os.path import join as j\n",
			"from os.path import join as j\n",
		},
		{
			"empty class",
			"class A(Base):\n    pass\n",
			"class A(Base):\n    pass\n",
		},
		{
			"for loop",
			"for x, y in items():\n    pass\n",
			"for x,y in items():\n    pass\n",
		},
		{
			"try chain",
			"try:\n    pass\nexcept Exception as e:\n    raise\n",
			"try:\n    pass\nexcept Exception as e:\n    raise \n",
		},
		{
			"docstring",
			"'''Doc.'''\nx = 1\n",
			"\"\"\"Doc.\"\"\"\nx=1\n",
		},
		{
			"decorator",
			"@cached\ndef g():\n    pass\n",
			"@cached\ndef g():\n    pass\n",
		},
		{
			"nested",
			"class A:\n    def m(self):\n        self.x = 1\n",
			"class A:\n    def m(self):\n        self.x=1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, tt.source)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPythonEncoderFixedPoint(t *testing.T) {
	sources := []string{
		"def f(a, b):\n    return a+b\n",
		"import os, sys as s\nfrom pkg import *\n",
		"class A(Base):\n    def m(self):\n        self.x = 1\n",
		"for x, y in items():\n    total = x\n",
		"try:\n    pass\nexcept Exception as e:\n    pass\n",
	}
	for _, source := range sources {
		once := render(t, source)
		twice := render(t, once)
		if once != twice {
			t.Errorf("not a fixed point:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestIndentBlock(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a\nb\n", "    a\n    b\n"},
		{"a\n\nb\n", "    a\n    \n    b\n"},
		{"", ""},
		{"\n", "\n"},
	}
	for _, tt := range tests {
		if got := indentBlock(tt.input, "    "); got != tt.want {
			t.Errorf("indentBlock(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestJSONEncoder(t *testing.T) {
	res := parser.Parse([]byte("import os\ndef f(a):\n    x = 1\n"))

	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(res.Module); err != nil {
		t.Fatal(err)
	}

	var node jsonNode
	if err := json.Unmarshal(buf.Bytes(), &node); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if node.Kind != "module" {
		t.Errorf("kind: got %q, want %q", node.Kind, "module")
	}
	if len(node.Imports) != 1 || node.Imports[0].Name != "os" {
		t.Errorf("imports: got %v", node.Imports)
	}
	if len(node.Subscopes) != 1 {
		t.Fatalf("subscopes: got %d, want 1", len(node.Subscopes))
	}
	fn := node.Subscopes[0]
	if fn.Kind != "function" || fn.Name != "f" {
		t.Errorf("function: got kind=%q name=%q", fn.Kind, fn.Name)
	}
	if len(fn.Params) != 1 || fn.Params[0] != "a" {
		t.Errorf("params: got %v, want [a]", fn.Params)
	}
	if len(fn.Statements) != 1 || fn.Statements[0].Written[0] != "x" {
		t.Errorf("statements: got %v", fn.Statements)
	}
}

func TestJSONEncoderFlowChain(t *testing.T) {
	res := parser.Parse([]byte("try:\n    pass\nexcept Exception as e:\n    pass\n"))

	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(res.Module); err != nil {
		t.Fatal(err)
	}

	var node jsonNode
	if err := json.Unmarshal(buf.Bytes(), &node); err != nil {
		t.Fatal(err)
	}
	if len(node.Statements) != 1 {
		t.Fatalf("statements: got %d, want 1", len(node.Statements))
	}
	try := node.Statements[0]
	if try.Keyword != "try" || try.Next == nil || try.Next.Keyword != "except" {
		t.Errorf("chain: got %+v", try)
	}
	if len(try.Next.Written) != 1 || try.Next.Written[0] != "e" {
		t.Errorf("written: got %v, want [e]", try.Next.Written)
	}
}
