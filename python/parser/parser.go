// Package parser builds a tree of lexical scopes from Python source code.
//
// The parser is fuzzy: it keeps producing a usable tree when the input is
// syntactically broken, which is what interactive tools need while the user
// is still typing. Malformed constructs are logged and skipped, inconsistent
// indentation is corrected by comparing raw columns, and a truncated file
// yields a partial tree instead of an error.
package parser

import (
	"strings"

	"github.com/tliron/commonlog"

	pytoken "github.com/LH183523/jedi/python/token"
)

type Option func(*Parser)

// WithFile sets the file name recorded in token positions.
func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithLine marks a point of interest: the parse reports which scope was open
// when tokens on this line were consumed.
func WithLine(line int) Option {
	return func(p *Parser) {
		p.userLine = line
	}
}

// WithLogger replaces the diagnostics logger. The default stays silent
// unless commonlog has been configured with a backend.
func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// Result is the outcome of a parse. Module is never nil. UserScope is the
// innermost scope open at the point-of-interest line, or nil when no line
// was supplied or the input never reached it.
type Result struct {
	Module    *Scope
	UserScope ScopeNode
}

type Parser struct {
	file     string
	userLine int
	log      commonlog.Logger

	tz        *pytoken.Tokenizer
	top       *Scope
	scope     ScopeNode
	current   pytoken.Token
	last      pytoken.Token
	lineNr    int
	userScope ScopeNode
	eof       bool
}

// Parse consumes the whole source and returns the scope tree. It does not
// fail: for any input, including garbage, it returns a best-effort tree.
func Parse(source []byte, opts ...Option) *Result {
	p := &Parser{
		log: commonlog.GetLogger("jedi.parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.top = &Scope{}
	p.scope = p.top
	p.tz = pytoken.NewTokenizer(source, p.file)
	p.run()
	return &Result{Module: p.top, UserScope: p.userScope}
}

// next pulls one token, tracks the current line and remembers the previous
// token. Reaching the end marker flips eof; that is the expected terminal
// condition, not an error.
func (p *Parser) next() pytoken.Token {
	tok := p.tz.Next()
	if tok.Kind == pytoken.EndMarker {
		p.eof = true
	}
	p.lineNr = tok.Span.Start.Line
	if p.userLine > 0 && p.lineNr == p.userLine {
		p.userScope = p.scope
	}
	p.last = p.current
	p.current = tok
	return tok
}

func (p *Parser) closeScope() {
	p.scope.Base().EndLine = p.lineNr
	if parent := p.scope.Record().Parent; parent != nil {
		p.scope = parent
	}
}

// parseDotName reads a NAME (. NAME)* chain, or a bare * as the degenerate
// star-import path. pre carries a token the caller already consumed. The
// trailing non-matching token is returned for further dispatch; an empty
// segment list means "no name here", which is a normal branch.
func (p *Parser) parseDotName(pre *pytoken.Token) (names []string, last pytoken.Token, startIndent, startLine int) {
	var tok pytoken.Token
	if pre == nil {
		tok = p.next()
		if p.eof || (tok.Kind != pytoken.Name && tok.Literal != "*") {
			return nil, tok, 0, 0
		}
	} else {
		tok = *pre
		if tok.Kind != pytoken.Name && tok.Literal != "*" {
			return nil, tok, tok.Indent(), p.lineNr
		}
	}
	startIndent = tok.Indent()
	startLine = p.lineNr
	names = append(names, tok.Literal)
	for !p.eof {
		tok = p.next()
		if tok.Literal != "." {
			break
		}
		tok = p.next()
		if tok.Kind != pytoken.Name {
			break
		}
		names = append(names, tok.Literal)
	}
	return names, tok, startIndent, startLine
}

func (p *Parser) name(segments []string, indent, startLine int) *Name {
	return &Name{
		Simple: Simple{Indent: indent, StartLine: startLine, EndLine: p.lineNr},
		Names:  segments,
	}
}

// parseValueList reads the comma-separated loop targets of a for statement,
// stopping before the separating in keyword. A malformed for yields an
// empty target list rather than failing. Parenthesized groups contribute
// the names they contain as flat targets; nested unpacking structure is not
// preserved.
func (p *Parser) parseValueList() ([]*Name, pytoken.Token) {
	var values []*Name
	tok := p.next()
	for !p.eof && tok.Literal != "in" && tok.Kind != pytoken.Newline {
		names, last, si, sl := p.parseDotName(&tok)
		if len(names) > 0 {
			values = append(values, p.name(names, si, sl))
		}
		tok = last
		if tok.Literal == "in" {
			break
		}
		tok = p.next()
	}
	return values, tok
}

// importPair is one name [as alias] element of an import list. Building
// Import nodes is deferred to the caller, which knows whether the list
// belongs to a plain import or a from import.
type importPair struct {
	name  *Name
	alias *Name
}

func (p *Parser) parseImportList() []importPair {
	var pairs []importPair
	for !p.eof {
		names, tok, si, sl := p.parseDotName(nil)
		if len(names) == 0 {
			break
		}
		name := p.name(names, si, sl)
		var alias *Name
		if tok.Literal == "as" {
			aliasNames, aliasTok, si2, sl2 := p.parseDotName(nil)
			if len(aliasNames) > 0 {
				alias = p.name(aliasNames, si2, sl2)
			}
			tok = aliasTok
		}
		pairs = append(pairs, importPair{name: name, alias: alias})
		for !p.eof && tok.Literal != "," && !strings.Contains(tok.Literal, "\n") && tok.Kind != pytoken.Newline {
			tok = p.next()
		}
		if tok.Literal != "," {
			break
		}
	}
	return pairs
}

// parseParen reads the parenthesized list after a def or class header: one
// Statement per parameter or superclass expression.
func (p *Parser) parseParen() []*Statement {
	var stmts []*Statement
	for !p.eof {
		stmt, tok := p.parseStatement(nil, ",")
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if tok.Literal == ")" || tok.Literal == ":" || tok.Kind == pytoken.Newline {
			break
		}
	}
	return stmts
}

// parseFunction reads the tokens after a def keyword. Any deviation from
// NAME ( params ) : yields nil; the caller logs and resumes at the next
// token.
func (p *Parser) parseFunction(indent int) *Function {
	startLine := p.lineNr
	tok := p.next()
	if p.eof || tok.Kind != pytoken.Name {
		return nil
	}
	name := p.name([]string{tok.Literal}, tok.Indent(), p.lineNr)

	tok = p.next()
	if tok.Literal != "(" {
		return nil
	}
	params := p.parseParen()

	tok = p.next()
	if tok.Literal != ":" {
		return nil
	}

	return &Function{
		Scope:  Scope{Simple: Simple{Indent: indent, StartLine: startLine}},
		Name:   name,
		Params: params,
	}
}

// parseClass reads the tokens after a class keyword. The trailing colon of
// a superclass list is left for the main loop, which ignores it.
func (p *Parser) parseClass(indent int) *Class {
	startLine := p.lineNr
	tok := p.next()
	if p.eof || tok.Kind != pytoken.Name {
		p.log.Debugf("class: token is not a name at line %d (%s: %q)", p.lineNr, tok.Kind, tok.Literal)
		return nil
	}
	name := p.name([]string{tok.Literal}, tok.Indent(), p.lineNr)

	var supers []*Statement
	tok = p.next()
	if tok.Literal == "(" {
		supers = p.parseParen()
	} else if tok.Literal != ":" {
		p.log.Debugf("class: syntax error near %s at line %d", name, p.lineNr)
		return nil
	}

	return &Class{
		Scope:  Scope{Simple: Simple{Indent: indent, StartLine: startLine}},
		Name:   name,
		Supers: supers,
	}
}

// alwaysBreak holds tokens that end a statement at any bracket depth: these
// keywords can never legally begin inside an expression, which makes them a
// recovery guard against runaway depth from malformed input.
var alwaysBreak = map[string]bool{
	";": true, "import": true, "from": true, "class": true,
	"def": true, "try": true, "except": true, "finally": true,
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true,
}

// parseStatement scans one fuzzy expression/statement up to a break token,
// reconstructing its text and classifying every dotted name it meets as
// called, written or read. Names textually left of an assignment operator
// are promoted to written; this is a deliberate heuristic, not a full
// assignment-target grammar, and chained assignments keep only the most
// recent left-hand side. A nil Statement means no text accumulated, which
// is normal for immediately terminated headers.
func (p *Parser) parseStatement(pre *pytoken.Token, added ...string) (*Statement, pytoken.Token) {
	var code string
	var written, called, read []*Name
	level := 0

	var tok pytoken.Token
	if pre != nil {
		tok = *pre
	} else {
		tok = p.next()
	}
	indent := tok.Indent()
	lineStart := p.lineNr

	breaks := map[string]bool{"\n": true, ":": true, ")": true}
	for _, a := range added {
		breaks[a] = true
	}

	for !p.eof {
		if alwaysBreak[tok.Literal] {
			break
		}
		if level <= 0 && (breaks[tok.Literal] || tok.Kind == pytoken.Newline) {
			break
		}

		var replace *string
		switch {
		case tok.Literal == "as" && tok.Kind == pytoken.Name:
			code += " as "
			tok = p.next()
			if tok.Kind == pytoken.Name {
				names, last, si, sl := p.parseDotName(&tok)
				n := p.name(names, si, sl)
				written = append(written, n)
				code += n.String()
				tok = last
			}
			continue

		case tok.Kind == pytoken.Name:
			switch tok.Literal {
			case "return", "yield", "del", "raise", "assert":
				s := tok.Literal + " "
				replace = &s
			case "print", "exec":
				// structurally irrelevant, drop the keyword itself
				s := ""
				replace = &s
			default:
				names, last, si, sl := p.parseDotName(&tok)
				n := p.name(names, si, sl)
				if last.Literal == "(" {
					called = append(called, n)
				} else if names[0] != "global" {
					read = append(read, n)
				}
				if code != "" && isWordChar(code[len(code)-1]) {
					code += " "
				}
				code += n.String()
				tok = last
				continue
			}

		case strings.Contains(tok.Literal, "=") && !comparisonOps[tok.Literal]:
			// assignment sighting: what accumulated so far was the target side
			written = read
			read = nil

		case tok.Literal == "(" || tok.Literal == "[" || tok.Literal == "{":
			level++

		case tok.Literal == ")" || tok.Literal == "]" || tok.Literal == "}":
			level--
		}

		if replace != nil {
			code = *replace
		} else {
			code += tok.Literal
		}
		tok = p.next()
	}

	if code == "" {
		return nil, tok
	}
	stmt := &Statement{
		Simple:  Simple{Indent: indent, StartLine: lineStart, EndLine: p.lineNr},
		Code:    code,
		Written: written,
		Called:  called,
		Read:    read,
	}
	return stmt, tok
}

func isWordChar(ch byte) bool {
	return ch == '_' || ch == '\'' || ch == '"' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

var extendedFlow = map[string]bool{
	"else": true, "except": true, "finally": true,
}

var flowKeywords = map[string]bool{
	"if": true, "while": true, "try": true, "with": true,
	"else": true, "except": true, "finally": true,
}

var statementOpeners = map[string]bool{
	"{": true, "[": true, "(": true, "`": true,
}

// lastFlow returns the scope's final statement when it is a Flow, the head
// a continuation keyword can chain onto.
func lastFlow(scope ScopeNode) *Flow {
	stmts := scope.Base().Statements
	if len(stmts) == 0 {
		return nil
	}
	f, _ := stmts[len(stmts)-1].(*Flow)
	return f
}

// run is the scope-builder loop. Every branch recovers: the worst outcome
// for a malformed construct is that it gets skipped and parsing resumes at
// the next token.
func (p *Parser) run() {
	var decorators []*Statement
	freshScope := true

	for !p.eof {
		tok := p.next()
		if p.eof {
			break
		}

		// Explicit dedent events close scopes whose indent level ends here.
		for tok.Kind == pytoken.Dedent && p.scope.Base() != p.top && !p.eof {
			tok = p.next()
			if tok.Indent() <= p.scope.Base().Indent {
				p.closeScope()
			}
		}

		// Recovery fallback: malformed indentation can confuse the
		// tokenizer's dedent bookkeeping, so unindented names close scopes
		// by raw column comparison as well.
		for tok.Kind == pytoken.Name && tok.Indent() <= p.scope.Base().Indent &&
			p.scope.Base() != p.top {
			p.log.Debugf("dedent recovery at line %d: %d <= %d",
				p.lineNr, tok.Indent(), p.scope.Base().Indent)
			p.closeScope()
		}

		startLine := p.lineNr
		indent := tok.Indent()

		switch {
		case tok.Kind == pytoken.Name && tok.Literal == "def":
			fn := p.parseFunction(indent)
			if fn == nil {
				p.log.Debugf("function: syntax error at line %d", p.lineNr)
				continue
			}
			freshScope = true
			fn.Decorators = decorators
			decorators = nil
			p.scope = AddScope(p.scope, fn)

		case tok.Kind == pytoken.Name && tok.Literal == "class":
			cls := p.parseClass(indent)
			if cls == nil {
				continue
			}
			freshScope = true
			cls.Decorators = decorators
			decorators = nil
			p.scope = AddScope(p.scope, cls)

		case tok.Kind == pytoken.Name && tok.Literal == "import":
			for _, pair := range p.parseImportList() {
				AddImport(p.scope, &Import{
					Simple: Simple{Indent: indent, StartLine: startLine, EndLine: p.lineNr},
					Path:   pair.name,
					Alias:  pair.alias,
				})
			}
			freshScope = false

		case tok.Kind == pytoken.Name && tok.Literal == "from":
			names, tok2, si, sl := p.parseDotName(nil)
			if len(names) == 0 || tok2.Literal != "import" {
				p.log.Debugf("from: syntax error at line %d", p.lineNr)
				continue
			}
			mod := p.name(names, si, sl)
			for _, pair := range p.parseImportList() {
				star := pair.name.Names[0] == "*"
				path := pair.name
				if star {
					path = nil
				}
				AddImport(p.scope, &Import{
					Simple: Simple{Indent: indent, StartLine: startLine, EndLine: p.lineNr},
					Path:   path,
					Alias:  pair.alias,
					From:   mod,
					Star:   star,
				})
			}
			freshScope = false

		case tok.Kind == pytoken.Name && tok.Literal == "for":
			targets, tok2 := p.parseValueList()
			if tok2.Literal == "in" {
				stmt, tok3 := p.parseStatement(nil)
				if tok3.Literal == ":" {
					f := &Flow{
						Scope:   Scope{Simple: Simple{Indent: indent, StartLine: p.lineNr}},
						Keyword: "for",
						Header:  stmt,
						Targets: targets,
					}
					AddStatement(p.scope, f)
					p.scope = f
				}
			}

		case tok.Kind == pytoken.Name && flowKeywords[tok.Literal]:
			keyword := tok.Literal
			var added []string
			if keyword == "except" {
				// legacy "except E, name:" binds a name
				added = append(added, ",")
			}
			stmt, tok2 := p.parseStatement(nil, added...)
			if len(added) > 0 && tok2.Literal == "," {
				names, tok3, si, sl := p.parseDotName(nil)
				if len(names) > 0 && stmt != nil {
					n := p.name(names, si, sl)
					stmt.Written = append(stmt.Written, n)
					stmt.Code += "," + n.String()
				}
				tok2 = tok3
			}
			if tok2.Literal == ":" {
				f := &Flow{
					Scope:   Scope{Simple: Simple{Indent: indent, StartLine: p.lineNr}},
					Keyword: keyword,
					Header:  stmt,
				}
				if extendedFlow[keyword] {
					if head := lastFlow(p.scope); head != nil {
						p.scope = head.SetNext(f)
					} else {
						// continuation without a head, keep it as a sibling
						p.log.Debugf("flow %s without a head at line %d", keyword, p.lineNr)
						AddStatement(p.scope, f)
						p.scope = f
					}
				} else {
					AddStatement(p.scope, f)
					p.scope = f
				}
			}

		case tok.Kind == pytoken.Name && tok.Literal == "global":
			stmt, _ := p.parseStatement(&tok)
			if stmt != nil {
				AddStatement(p.scope, stmt)
				for _, n := range stmt.Read {
					// globals matter at the top, regardless of nesting
					p.top.AddGlobal(n)
				}
			}

		case tok.Literal == "@":
			stmt, _ := p.parseStatement(nil)
			if stmt != nil {
				decorators = append(decorators, stmt)
			}

		case tok.Kind == pytoken.Name && tok.Literal == "pass":
			continue

		case tok.Kind == pytoken.String:
			if freshScope {
				p.scope.Base().SetDocstring(tok.Literal)
			}

		case tok.Kind == pytoken.Name || statementOpeners[tok.Literal]:
			stmt, _ := p.parseStatement(&tok)
			if stmt != nil {
				AddStatement(p.scope, stmt)
			}
			freshScope = false
		}
	}
}
