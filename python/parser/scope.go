package parser

import "strings"

// Simple carries the position fields shared by every node in the scope tree.
// EndLine stays 0 while the node's enclosing scope is still open; the parser
// stamps it when indentation tracking closes the scope. Parent is a
// non-owning back-pointer, set exactly once at attachment time.
type Simple struct {
	Indent    int
	StartLine int
	EndLine   int
	Parent    ScopeNode
}

func (s *Simple) Record() *Simple {
	return s
}

func (s *Simple) Lines() (start, end int) {
	return s.StartLine, s.EndLine
}

// Node is any tree element that can appear in a scope's child collections.
type Node interface {
	Record() *Simple
}

// ScopeNode is a node that can own declarations: the module root, classes,
// functions and flow statements.
type ScopeNode interface {
	Node
	Base() *Scope
	DefinedNames() []*Name
}

// Scope owns, in insertion order, its nested declarations, imports and
// statements. The module root is a plain Scope with indent 0 and no parent;
// it is never closed while parsing.
type Scope struct {
	Simple
	Subscopes   []ScopeNode
	Imports     []*Import
	Statements  []Node
	GlobalNames []*Name
	Docstring   string
}

func (s *Scope) Base() *Scope {
	return s
}

// AddGlobal records a name declared global. Only meaningful on the module
// root, where the parser registers globals regardless of nesting depth.
func (s *Scope) AddGlobal(n *Name) {
	s.GlobalNames = append(s.GlobalNames, n)
}

// SetDocstring normalizes and stores a scope's docstring.
func (s *Scope) SetDocstring(raw string) {
	s.Docstring = NormalizeDocstring(raw)
}

// IsEmpty reports whether the scope has no subscopes, imports or statements.
func (s *Scope) IsEmpty() bool {
	return len(s.Subscopes) == 0 && len(s.Imports) == 0 && len(s.Statements) == 0
}

// OnLine returns the statements and imports whose line span covers line.
func (s *Scope) OnLine(line int) []Node {
	var nodes []Node
	for _, stmt := range s.Statements {
		r := stmt.Record()
		if r.StartLine <= line && line <= r.EndLine {
			nodes = append(nodes, stmt)
		}
	}
	for _, imp := range s.Imports {
		if imp.StartLine <= line && line <= imp.EndLine {
			nodes = append(nodes, imp)
		}
	}
	return nodes
}

// DefinedNames returns the names introduced directly in this scope: names
// assigned by its statements (descending into flow bodies, which do not open
// a new Python scope), the names of nested classes and functions, declared
// globals and imported names. Star imports contribute nothing since their
// names are unknowable without resolving the target module.
func (s *Scope) DefinedNames() []*Name {
	var names []*Name
	for _, stmt := range s.Statements {
		switch n := stmt.(type) {
		case *Statement:
			names = append(names, n.Written...)
		case *Flow:
			names = append(names, n.DefinedNames()...)
		}
	}
	for _, sub := range s.Subscopes {
		switch n := sub.(type) {
		case *Class:
			if n.Name != nil {
				names = append(names, n.Name)
			}
		case *Function:
			if n.Name != nil {
				names = append(names, n.Name)
			}
		}
	}
	names = append(names, s.GlobalNames...)
	for _, imp := range s.Imports {
		names = append(names, imp.Names()...)
	}
	return names
}

// AddScope attaches sub as a nested declaration of parent and returns sub.
func AddScope(parent, sub ScopeNode) ScopeNode {
	sub.Record().Parent = parent
	parent.Base().Subscopes = append(parent.Base().Subscopes, sub)
	return sub
}

// AddStatement attaches a Statement or a Flow to parent's statement list.
func AddStatement(parent ScopeNode, stmt Node) Node {
	stmt.Record().Parent = parent
	parent.Base().Statements = append(parent.Base().Statements, stmt)
	return stmt
}

// AddImport attaches an import to parent.
func AddImport(parent ScopeNode, imp *Import) *Import {
	imp.Parent = parent
	parent.Base().Imports = append(parent.Base().Imports, imp)
	return imp
}

// Class is a scope opened by a class definition.
type Class struct {
	Scope
	Name       *Name
	Supers     []*Statement
	Decorators []*Statement
}

// DefinedNames adds the attribute names a class gains through its methods:
// any two-segment name whose first segment matches the method's first
// parameter (conventionally self) counts as an attribute of the class.
func (c *Class) DefinedNames() []*Name {
	var names []*Name
	for _, sub := range c.Subscopes {
		fn, ok := sub.(*Function)
		if !ok || len(fn.Params) == 0 {
			continue
		}
		self := firstName(fn.Params[0])
		if self == "" {
			continue
		}
		for _, n := range fn.DefinedNames() {
			if len(n.Names) == 2 && n.Names[0] == self {
				names = append(names, n)
			}
		}
	}
	return append(names, c.Scope.DefinedNames()...)
}

func firstName(stmt *Statement) string {
	if len(stmt.Read) > 0 {
		return stmt.Read[0].Names[0]
	}
	if len(stmt.Written) > 0 {
		return stmt.Written[0].Names[0]
	}
	return ""
}

// Function is a scope opened by a def. Params holds one Statement per
// parameter; defaults and annotations are kept verbatim in the text.
type Function struct {
	Scope
	Name       *Name
	Params     []*Statement
	Decorators []*Statement
}

func (f *Function) DefinedNames() []*Name {
	var names []*Name
	for _, p := range f.Params {
		if len(p.Written) > 0 {
			names = append(names, p.Written...)
		} else {
			names = append(names, p.Read...)
		}
	}
	return append(names, f.Scope.DefinedNames()...)
}

// Flow is a control structure scope: if, elif, else, for, while, try,
// except, finally, with. Continuation parts (else after if, except and
// finally after try) hang off Next instead of appearing as siblings.
type Flow struct {
	Scope
	Keyword string
	Header  *Statement
	Targets []*Name
	Next    *Flow
}

// SetNext appends next to the end of the flow chain. The continuation shares
// the chain's parent rather than becoming a child of it.
func (f *Flow) SetNext(next *Flow) *Flow {
	if f.Next != nil {
		return f.Next.SetNext(next)
	}
	f.Next = next
	next.Parent = f.Parent
	return next
}

func (f *Flow) DefinedNames() []*Name {
	var names []*Name
	names = append(names, f.Targets...)
	if f.Header != nil {
		names = append(names, f.Header.Written...)
	}
	if f.Next != nil {
		names = append(names, f.Next.DefinedNames()...)
	}
	return append(names, f.Scope.DefinedNames()...)
}

// Import is a leaf node for one imported name. Exactly one of the plain
// shape (Path, optional Alias) or the from shape (From plus Path/Star) is
// populated.
type Import struct {
	Simple
	Path  *Name
	Alias *Name
	From  *Name
	Star  bool
}

// Names returns the names this import introduces into its scope.
func (i *Import) Names() []*Name {
	if i.Star {
		return nil
	}
	if i.Alias != nil {
		return []*Name{i.Alias}
	}
	if i.Path != nil {
		return []*Name{i.Path}
	}
	return nil
}

// Statement is a leaf node holding the reconstructed text of one statement
// and the names it touches. Written holds assignment targets, Called names
// followed by a call, Read everything else.
type Statement struct {
	Simple
	Code    string
	Written []*Name
	Called  []*Name
	Read    []*Name
}

// Name is a dotted identifier chain like pkg.mod.attr.
type Name struct {
	Simple
	Names []string
}

func (n *Name) String() string {
	return strings.Join(n.Names, ".")
}

// Equal is structural: same segments at the same position.
func (n *Name) Equal(other *Name) bool {
	if other == nil || len(n.Names) != len(other.Names) {
		return false
	}
	for i := range n.Names {
		if n.Names[i] != other.Names[i] {
			return false
		}
	}
	return n.StartLine == other.StartLine && n.Indent == other.Indent
}

// NormalizeDocstring strips string prefixes and quotes and collapses all
// whitespace runs to single spaces. It is idempotent.
func NormalizeDocstring(raw string) string {
	if i := strings.IndexAny(raw, `'"`); i > 0 {
		raw = raw[i:]
	}
	d := strings.ReplaceAll(raw, "\n", " ")
	d = strings.ReplaceAll(d, "\t", " ")
	for strings.Contains(d, "  ") {
		d = strings.ReplaceAll(d, "  ", " ")
	}
	return strings.Trim(d, `"' `)
}
