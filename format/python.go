package format

import (
	"io"
	"strings"

	"github.com/LH183523/jedi/python/parser"
)

// PythonEncoder regenerates normalized Python source from a scope tree.
// The output is a canonical rendering of what the parser understood, not a
// byte-faithful copy of the input: four-space indentation, one statement
// per line, comments gone.
type PythonEncoder struct {
	w      io.Writer
	module *parser.Scope
	indent string
}

func NewPythonEncoder(w io.Writer) *PythonEncoder {
	return &PythonEncoder{w: w, indent: "    "}
}

func (e *PythonEncoder) Encode(module *parser.Scope) error {
	e.module = module
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *PythonEncoder) MarshalText() ([]byte, error) {
	return []byte(e.scope(e.module, false)), nil
}

func (e *PythonEncoder) scope(s *parser.Scope, indented bool) string {
	var b strings.Builder
	if s.Docstring != "" {
		b.WriteString(`"""` + s.Docstring + `"""` + "\n")
	}
	for _, imp := range s.Imports {
		b.WriteString(importLine(imp))
	}
	for _, sub := range s.Subscopes {
		switch n := sub.(type) {
		case *parser.Class:
			b.WriteString(e.class(n))
		case *parser.Function:
			b.WriteString(e.function(n))
		}
	}
	for _, stmt := range s.Statements {
		switch n := stmt.(type) {
		case *parser.Flow:
			b.WriteString(e.flow(n))
		case *parser.Statement:
			b.WriteString(n.Code + "\n")
		}
	}

	out := b.String()
	if indented {
		out = indentBlock(out, e.indent)
	}
	return out
}

func (e *PythonEncoder) class(c *parser.Class) string {
	var b strings.Builder
	for _, dec := range c.Decorators {
		b.WriteString("@" + dec.Code + "\n")
	}
	b.WriteString("class " + c.Name.String())
	if len(c.Supers) > 0 {
		codes := make([]string, len(c.Supers))
		for i, sup := range c.Supers {
			codes[i] = sup.Code
		}
		b.WriteString("(" + strings.Join(codes, ",") + ")")
	}
	b.WriteString(":\n")
	b.WriteString(e.body(&c.Scope))
	return b.String()
}

func (e *PythonEncoder) function(f *parser.Function) string {
	var b strings.Builder
	for _, dec := range f.Decorators {
		b.WriteString("@" + dec.Code + "\n")
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Code
	}
	b.WriteString("def " + f.Name.String() + "(" + strings.Join(params, ",") + "):\n")
	b.WriteString(e.body(&f.Scope))
	return b.String()
}

func (e *PythonEncoder) flow(f *parser.Flow) string {
	var b strings.Builder
	b.WriteString(f.Keyword)
	if len(f.Targets) > 0 {
		targets := make([]string, len(f.Targets))
		for i, n := range f.Targets {
			targets[i] = n.String()
		}
		b.WriteString(" " + strings.Join(targets, ",") + " in")
	}
	if f.Header != nil {
		b.WriteString(" " + f.Header.Code)
	}
	b.WriteString(":\n")
	b.WriteString(e.body(&f.Scope))
	if f.Next != nil {
		b.WriteString(e.flow(f.Next))
	}
	return b.String()
}

// body renders a scope's contents one level deeper, with a pass filler so
// that regenerated suites are never empty.
func (e *PythonEncoder) body(s *parser.Scope) string {
	out := e.scope(s, true)
	if out == "" {
		return e.indent + "pass\n"
	}
	return out
}

func importLine(imp *parser.Import) string {
	target := ""
	if imp.Path != nil {
		target = imp.Path.String()
	}
	if imp.Alias != nil {
		target += " as " + imp.Alias.String()
	}
	if imp.From != nil {
		if imp.Star {
			target = "*"
		}
		return "from " + imp.From.String() + " import " + target + "\n"
	}
	return "import " + target + "\n"
}

// indentBlock prefixes every line of text with indent, leaving trailing
// newlines alone.
func indentBlock(text, indent string) string {
	trailing := 0
	for trailing < len(text) && text[len(text)-1-trailing] == '\n' {
		trailing++
	}
	body := text[:len(text)-trailing]
	if body == "" {
		return text
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n") + text[len(text)-trailing:]
}
