package token

import "fmt"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Span struct {
	Start Position
	End   Position
}

type Kind int

const (
	EndMarker Kind = iota
	Name
	Number
	String
	Op
	Indent
	Dedent
	Newline
)

var kindNames = map[Kind]string{
	EndMarker: "EndMarker",
	Name:      "Name",
	Number:    "Number",
	String:    "String",
	Op:        "Op",
	Indent:    "Indent",
	Dedent:    "Dedent",
	Newline:   "Newline",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Token is one element of the stream the parser consumes. Source holds the
// raw text of the line the token starts on.
type Token struct {
	Kind    Kind
	Span    Span
	Literal string
	Source  string
}

// Indent reports the column the token starts at. The parser compares these
// against scope indents when closing scopes.
func (t Token) Indent() int {
	return t.Span.Start.Column
}
