package token

import (
	"testing"
)

func literalsOf(tokens []Token) []string {
	var out []string
	for _, tok := range tokens {
		out = append(out, tok.Literal)
	}
	return out
}

func kindsOf(tokens []Token) []Kind {
	var out []Kind
	for _, tok := range tokens {
		out = append(out, tok.Kind)
	}
	return out
}

func equalKinds(got, want []Kind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestTokenizeDef(t *testing.T) {
	input := "def f(a, b):\n    return a+b\n"
	tokens := Tokenize([]byte(input), "test.py")

	wantKinds := []Kind{
		Name, Name, Op, Name, Op, Name, Op, Op, Newline,
		Indent, Name, Name, Op, Name, Newline,
		Dedent, EndMarker,
	}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}

	wantLiterals := []string{
		"def", "f", "(", "a", ",", "b", ")", ":", "\n",
		"    ", "return", "a", "+", "b", "\n",
		"", "",
	}
	got := literalsOf(tokens)
	for i, want := range wantLiterals {
		if got[i] != want {
			t.Errorf("literal %d: got %q, want %q", i, got[i], want)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	input := "def f(a, b):\n    return a+b\n"
	tokens := Tokenize([]byte(input), "test.py")

	tests := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},  // def
		{1, 1, 5},  // f
		{10, 2, 5}, // return
		{16, 3, 1}, // end marker
	}
	for _, tt := range tests {
		tok := tokens[tt.index]
		if tok.Span.Start.Line != tt.line || tok.Span.Start.Column != tt.column {
			t.Errorf("token %d (%q): got %d:%d, want %d:%d",
				tt.index, tok.Literal, tok.Span.Start.Line, tok.Span.Start.Column, tt.line, tt.column)
		}
	}
	if tokens[0].Span.Start.File != "test.py" {
		t.Errorf("file: got %q, want %q", tokens[0].Span.Start.File, "test.py")
	}
}

func TestBracketJoining(t *testing.T) {
	input := "x = (1,\n     2)\ny = 3\n"
	tokens := Tokenize([]byte(input), "")

	wantKinds := []Kind{
		Name, Op, Op, Number, Op, Number, Op, Newline,
		Name, Op, Number, Newline,
		EndMarker,
	}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`s = 'abc'` + "\n", `'abc'`},
		{`s = "a'b"` + "\n", `"a'b"`},
		{`s = 'a\'b'` + "\n", `'a\'b'`},
		{`s = """a` + "\n" + `b"""` + "\n", `"""a` + "\n" + `b"""`},
		{`s = r"\d+"` + "\n", `r"\d+"`},
		{`s = rb'\x00'` + "\n", `rb'\x00'`},
		{`s = u"abc"` + "\n", `u"abc"`},
		{`s = "abc` + "\n", `"abc`}, // unterminated, kept as-is
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Tokenize([]byte(tt.input), "")
			var str *Token
			for i := range tokens {
				if tokens[i].Kind == String {
					str = &tokens[i]
					break
				}
			}
			if str == nil {
				t.Fatalf("no string token in %v", literalsOf(tokens))
			}
			if str.Literal != tt.want {
				t.Errorf("got %q, want %q", str.Literal, tt.want)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []string{
		"42", "0x1F", "0o755", "0b1010", "3.14", ".5", "1_000",
		"1e10", "1e-3", "2.5e+4", "2j", "10L",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			tokens := Tokenize([]byte(input+"\n"), "")
			if tokens[0].Kind != Number {
				t.Fatalf("kind: got %v, want %v", tokens[0].Kind, Number)
			}
			if tokens[0].Literal != input {
				t.Errorf("got %q, want %q", tokens[0].Literal, input)
			}
		})
	}
}

func TestNumberMethodCall(t *testing.T) {
	// the dot after 1 starts an attribute access, not a float
	tokens := Tokenize([]byte("x = 1 .real\n"), "")
	wantKinds := []Kind{Name, Op, Number, Op, Name, Newline, EndMarker}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a **= b", "**="},
		{"a // b", "//"},
		{"a <<= b", "<<="},
		{"a >> b", ">>"},
		{"a != b", "!="},
		{"a <= b", "<="},
		{"a += b", "+="},
		{"a == b", "=="},
		{"a := b", ":="},
		{"a -> b", "->"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Tokenize([]byte(tt.input+"\n"), "")
			if tokens[1].Literal != tt.want {
				t.Errorf("got %q, want %q", tokens[1].Literal, tt.want)
			}
			if tokens[1].Kind != Op {
				t.Errorf("kind: got %v, want %v", tokens[1].Kind, Op)
			}
		})
	}
}

func TestBlankAndCommentLines(t *testing.T) {
	input := "x = 1\n\n# comment\n   \ny = 2\n"
	tokens := Tokenize([]byte(input), "")

	// no indent or dedent in between
	wantKinds := []Kind{Name, Op, Number, Newline, Name, Op, Number, Newline, EndMarker}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}
	if tokens[4].Span.Start.Line != 5 {
		t.Errorf("y line: got %d, want 5", tokens[4].Span.Start.Line)
	}
}

func TestTrailingComment(t *testing.T) {
	tokens := Tokenize([]byte("x = 1  # one\n"), "")
	wantKinds := []Kind{Name, Op, Number, Newline, EndMarker}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}
}

func TestExplicitLineJoin(t *testing.T) {
	input := "x = 1 + \\\n    2\n"
	tokens := Tokenize([]byte(input), "")
	wantKinds := []Kind{Name, Op, Number, Op, Number, Newline, EndMarker}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}
}

func TestMissingTrailingNewline(t *testing.T) {
	tokens := Tokenize([]byte("x = 1"), "")
	wantKinds := []Kind{Name, Op, Number, Newline, EndMarker}
	if got := kindsOf(tokens); !equalKinds(got, wantKinds) {
		t.Fatalf("kinds: got %v, want %v", got, wantKinds)
	}
}

func TestNestedDedents(t *testing.T) {
	input := "class A:\n    def m(self):\n        pass\nx = 1\n"
	tokens := Tokenize([]byte(input), "")

	var dedents int
	for _, tok := range tokens {
		if tok.Kind == Dedent {
			dedents++
		}
	}
	if dedents != 2 {
		t.Errorf("dedents: got %d, want 2", dedents)
	}

	// both levels close before x
	var xIndex, lastDedent int
	for i, tok := range tokens {
		if tok.Literal == "x" {
			xIndex = i
		}
		if tok.Kind == Dedent {
			lastDedent = i
		}
	}
	if lastDedent > xIndex {
		t.Errorf("dedent after x: dedent at %d, x at %d", lastDedent, xIndex)
	}
}

func TestTabIndent(t *testing.T) {
	tokens := Tokenize([]byte("if x:\n\ty = 1\n"), "")
	for _, tok := range tokens {
		if tok.Literal == "y" {
			if tok.Span.Start.Column != 9 {
				t.Errorf("column: got %d, want 9", tok.Span.Start.Column)
			}
			return
		}
	}
	t.Fatal("y not found")
}

func TestEndMarkerRepeats(t *testing.T) {
	tz := NewTokenizer([]byte("x\n"), "")
	for i := 0; i < 10; i++ {
		tok := tz.Next()
		if tok.Kind == EndMarker {
			if next := tz.Next(); next.Kind != EndMarker {
				t.Fatalf("after end marker: got %v, want %v", next.Kind, EndMarker)
			}
			return
		}
	}
	t.Fatal("no end marker within 10 tokens")
}

func TestIndentValue(t *testing.T) {
	tokens := Tokenize([]byte("def f():\n    pass\n"), "")
	for _, tok := range tokens {
		if tok.Literal == "pass" {
			if got := tok.Indent(); got != 5 {
				t.Errorf("indent: got %d, want 5", got)
			}
			return
		}
	}
	t.Fatal("pass not found")
}
