package format

import (
	"encoding/json"
	"io"

	"github.com/LH183523/jedi/python/parser"
)

// JSONEncoder serializes a scope tree for machine consumers. Parent links
// are dropped on the way out; the tree shape carries the same information.
type JSONEncoder struct {
	w      io.Writer
	module *parser.Scope
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(module *parser.Scope) error {
	e.module = module
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	node := buildScope("module", e.module)
	node.Globals = names(e.module.GlobalNames)
	return json.MarshalIndent(node, "", "  ")
}

type jsonNode struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name,omitempty"`
	Keyword    string     `json:"keyword,omitempty"`
	Code       string     `json:"code,omitempty"`
	StartLine  int        `json:"startLine,omitempty"`
	EndLine    int        `json:"endLine,omitempty"`
	Indent     int        `json:"indent,omitempty"`
	Docstring  string     `json:"docstring,omitempty"`
	Decorators []string   `json:"decorators,omitempty"`
	Supers     []string   `json:"supers,omitempty"`
	Params     []string   `json:"params,omitempty"`
	Targets    []string   `json:"targets,omitempty"`
	Written    []string   `json:"written,omitempty"`
	Called     []string   `json:"called,omitempty"`
	Read       []string   `json:"read,omitempty"`
	From       string     `json:"from,omitempty"`
	Alias      string     `json:"alias,omitempty"`
	Star       bool       `json:"star,omitempty"`
	Globals    []string   `json:"globals,omitempty"`
	Imports    []jsonNode `json:"imports,omitempty"`
	Subscopes  []jsonNode `json:"subscopes,omitempty"`
	Statements []jsonNode `json:"statements,omitempty"`
	Next       *jsonNode  `json:"next,omitempty"`
}

func buildScope(kind string, s *parser.Scope) jsonNode {
	node := jsonNode{
		Kind:      kind,
		StartLine: s.StartLine,
		EndLine:   s.EndLine,
		Indent:    s.Indent,
		Docstring: s.Docstring,
	}
	for _, imp := range s.Imports {
		node.Imports = append(node.Imports, buildImport(imp))
	}
	for _, sub := range s.Subscopes {
		switch n := sub.(type) {
		case *parser.Class:
			node.Subscopes = append(node.Subscopes, buildClass(n))
		case *parser.Function:
			node.Subscopes = append(node.Subscopes, buildFunction(n))
		}
	}
	for _, stmt := range s.Statements {
		switch n := stmt.(type) {
		case *parser.Flow:
			node.Statements = append(node.Statements, buildFlow(n))
		case *parser.Statement:
			node.Statements = append(node.Statements, buildStatement(n))
		}
	}
	return node
}

func buildClass(c *parser.Class) jsonNode {
	node := buildScope("class", &c.Scope)
	node.Name = c.Name.String()
	node.Decorators = statementCodes(c.Decorators)
	node.Supers = statementCodes(c.Supers)
	return node
}

func buildFunction(f *parser.Function) jsonNode {
	node := buildScope("function", &f.Scope)
	node.Name = f.Name.String()
	node.Decorators = statementCodes(f.Decorators)
	node.Params = statementCodes(f.Params)
	return node
}

func buildFlow(f *parser.Flow) jsonNode {
	node := buildScope("flow", &f.Scope)
	node.Keyword = f.Keyword
	node.Targets = names(f.Targets)
	if f.Header != nil {
		header := buildStatement(f.Header)
		node.Code = header.Code
		node.Written = header.Written
		node.Called = header.Called
		node.Read = header.Read
	}
	if f.Next != nil {
		next := buildFlow(f.Next)
		node.Next = &next
	}
	return node
}

func buildStatement(s *parser.Statement) jsonNode {
	return jsonNode{
		Kind:      "statement",
		Code:      s.Code,
		StartLine: s.StartLine,
		EndLine:   s.EndLine,
		Indent:    s.Indent,
		Written:   names(s.Written),
		Called:    names(s.Called),
		Read:      names(s.Read),
	}
}

func buildImport(imp *parser.Import) jsonNode {
	node := jsonNode{
		Kind:      "import",
		StartLine: imp.StartLine,
		EndLine:   imp.EndLine,
		Indent:    imp.Indent,
		Star:      imp.Star,
	}
	if imp.Path != nil {
		node.Name = imp.Path.String()
	}
	if imp.Alias != nil {
		node.Alias = imp.Alias.String()
	}
	if imp.From != nil {
		node.From = imp.From.String()
	}
	return node
}

func statementCodes(stmts []*parser.Statement) []string {
	var out []string
	for _, s := range stmts {
		out = append(out, s.Code)
	}
	return out
}

func names(ns []*parser.Name) []string {
	var out []string
	for _, n := range ns {
		out = append(out, n.String())
	}
	return out
}
