package token

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const tabSize = 8

// Tokenizer turns Python source into the token stream the parser consumes.
// It performs bracket-aware logical-line joining: newlines inside (), [] and
// {} produce no token, and indentation changes are reported as explicit
// Indent/Dedent tokens. It never fails; malformed input still yields tokens.
type Tokenizer struct {
	input       []byte
	file        string
	lines       []string
	pos         int
	line        int
	column      int
	depth       int
	indents     []int
	pending     []Token
	atLineStart bool
	done        bool
}

func NewTokenizer(input []byte, file string) *Tokenizer {
	return &Tokenizer{
		input:       input,
		file:        file,
		lines:       strings.Split(string(input), "\n"),
		pos:         0,
		line:        1,
		column:      1,
		indents:     []int{1},
		atLineStart: true,
	}
}

// Tokenize consumes the whole input and returns all tokens, ending with an
// EndMarker.
func Tokenize(input []byte, file string) []Token {
	tz := NewTokenizer(input, file)
	var tokens []Token
	for {
		tok := tz.Next()
		tokens = append(tokens, tok)
		if tok.Kind == EndMarker {
			return tokens
		}
	}
}

func (t *Tokenizer) Position() Position {
	return Position{
		File:   t.file,
		Offset: t.pos,
		Line:   t.line,
		Column: t.column,
	}
}

func (t *Tokenizer) peek() byte {
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

func (t *Tokenizer) peekN(n int) byte {
	if t.pos+n >= len(t.input) {
		return 0
	}
	return t.input[t.pos+n]
}

func (t *Tokenizer) advance() byte {
	if t.pos >= len(t.input) {
		return 0
	}
	ch := t.input[t.pos]
	t.pos++
	switch ch {
	case '\n':
		t.line++
		t.column = 1
	case '\t':
		t.column += tabSize - (t.column-1)%tabSize
	default:
		t.column++
	}
	return ch
}

func (t *Tokenizer) advanceN(n int) {
	for i := 0; i < n; i++ {
		t.advance()
	}
}

func (t *Tokenizer) sourceLine(line int) string {
	if line < 1 || line > len(t.lines) {
		return ""
	}
	return t.lines[line-1]
}

// Next returns the next token. After the EndMarker has been produced it keeps
// returning EndMarker tokens; exhaustion is a terminal state, not an error.
func (t *Tokenizer) Next() Token {
	for {
		if len(t.pending) > 0 {
			tok := t.pending[0]
			t.pending = t.pending[1:]
			return tok
		}
		if t.done {
			return t.token(EndMarker, t.Position())
		}

		if t.atLineStart && t.depth == 0 {
			if tok, ok := t.startLine(); ok {
				return tok
			}
			continue
		}

		for t.peek() == ' ' || t.peek() == '\t' || t.peek() == '\r' {
			t.advance()
		}

		start := t.Position()
		ch := t.peek()

		switch {
		case ch == 0:
			return t.finish(start)

		case ch == '#':
			for t.peek() != 0 && t.peek() != '\n' {
				t.advance()
			}
			continue

		case ch == '\\' && (t.peekN(1) == '\n' || (t.peekN(1) == '\r' && t.peekN(2) == '\n')):
			// explicit line joining
			for t.peek() != 0 && t.peek() != '\n' {
				t.advance()
			}
			t.advance()
			continue

		case ch == '\n':
			t.advance()
			if t.depth > 0 {
				continue
			}
			t.atLineStart = true
			return Token{
				Kind:    Newline,
				Span:    Span{Start: start, End: t.Position()},
				Literal: "\n",
				Source:  t.sourceLine(start.Line),
			}

		case isNameStart(ch):
			return t.scanNameOrString(start)

		case isDigit(ch) || (ch == '.' && isDigit(t.peekN(1))):
			return t.scanNumber(start)

		case ch == '\'' || ch == '"':
			return t.scanString(start)

		default:
			return t.scanOperator(start)
		}
	}
}

// startLine measures the indentation of a fresh logical line, skipping blank
// and comment-only lines, and reports an Indent or queues Dedents when the
// level changed. The bool result is false when no token is ready yet.
func (t *Tokenizer) startLine() (Token, bool) {
	start := t.Position()
	for t.peek() == ' ' || t.peek() == '\t' || t.peek() == '\r' {
		t.advance()
	}

	ch := t.peek()
	if ch == '#' {
		for t.peek() != 0 && t.peek() != '\n' {
			t.advance()
		}
		ch = t.peek()
	}
	if ch == '\n' {
		t.advance()
		return Token{}, false
	}
	if ch == 0 {
		return t.finish(t.Position()), true
	}

	t.atLineStart = false
	col := t.column
	top := t.indents[len(t.indents)-1]
	switch {
	case col > top:
		t.indents = append(t.indents, col)
		return Token{
			Kind:    Indent,
			Span:    Span{Start: start, End: t.Position()},
			Literal: string(t.input[start.Offset:t.pos]),
			Source:  t.sourceLine(start.Line),
		}, true
	case col < top:
		for len(t.indents) > 1 && t.indents[len(t.indents)-1] > col {
			t.indents = t.indents[:len(t.indents)-1]
			t.pending = append(t.pending, Token{
				Kind:   Dedent,
				Span:   Span{Start: t.Position(), End: t.Position()},
				Source: t.sourceLine(t.line),
			})
		}
		tok := t.pending[0]
		t.pending = t.pending[1:]
		return tok, true
	}
	return Token{}, false
}

// finish flushes a synthetic trailing newline when the file does not end with
// one, then the remaining dedents and the end marker.
func (t *Tokenizer) finish(at Position) Token {
	t.done = true
	end := at
	if !t.atLineStart {
		if t.depth == 0 {
			t.pending = append(t.pending, Token{
				Kind:   Newline,
				Span:   Span{Start: at, End: at},
				Source: t.sourceLine(at.Line),
			})
		}
		// dedents and the end marker belong to the line after the last one,
		// at column 1, so that indent comparisons close every open scope
		end = Position{File: t.file, Offset: at.Offset, Line: at.Line + 1, Column: 1}
	}
	for len(t.indents) > 1 {
		t.indents = t.indents[:len(t.indents)-1]
		t.pending = append(t.pending, Token{
			Kind: Dedent,
			Span: Span{Start: end, End: end},
		})
	}
	t.pending = append(t.pending, Token{
		Kind: EndMarker,
		Span: Span{Start: end, End: end},
	})

	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok
}

func (t *Tokenizer) scanNameOrString(start Position) Token {
	for isNameChar(t.peek()) {
		t.advance()
	}
	literal := string(t.input[start.Offset:t.pos])

	// string prefixes like r"", b'', rb"", f""
	if len(literal) <= 2 && isStringPrefix(literal) && (t.peek() == '\'' || t.peek() == '"') {
		return t.scanString(start)
	}

	return Token{
		Kind:    Name,
		Span:    Span{Start: start, End: t.Position()},
		Literal: literal,
		Source:  t.sourceLine(start.Line),
	}
}

func isStringPrefix(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		default:
			return false
		}
	}
	return true
}

func (t *Tokenizer) scanString(start Position) Token {
	quote := t.advance()
	if t.peek() == quote && t.peekN(1) == quote {
		t.advanceN(2)
		for t.peek() != 0 {
			if t.peek() == quote && t.peekN(1) == quote && t.peekN(2) == quote {
				t.advanceN(3)
				break
			}
			if t.peek() == '\\' {
				t.advance()
			}
			t.advance()
		}
	} else {
		for t.peek() != 0 && t.peek() != quote && t.peek() != '\n' {
			if t.peek() == '\\' && t.peekN(1) != 0 && t.peekN(1) != '\n' {
				t.advance()
			}
			t.advance()
		}
		if t.peek() == quote {
			t.advance()
		}
	}
	return Token{
		Kind:    String,
		Span:    Span{Start: start, End: t.Position()},
		Literal: string(t.input[start.Offset:t.pos]),
		Source:  t.sourceLine(start.Line),
	}
}

func (t *Tokenizer) scanNumber(start Position) Token {
	if t.peek() == '0' && (t.peekN(1) == 'x' || t.peekN(1) == 'X' ||
		t.peekN(1) == 'o' || t.peekN(1) == 'O' ||
		t.peekN(1) == 'b' || t.peekN(1) == 'B') {
		t.advanceN(2)
		for isHexDigit(t.peek()) || t.peek() == '_' {
			t.advance()
		}
		return t.token(Number, start)
	}

	for isDigit(t.peek()) || t.peek() == '_' {
		t.advance()
	}
	if t.peek() == '.' && !isNameStart(t.peekN(1)) && t.peekN(1) != '.' {
		t.advance()
		for isDigit(t.peek()) || t.peek() == '_' {
			t.advance()
		}
	}
	if t.peek() == 'e' || t.peek() == 'E' {
		next := t.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(t.peekN(2))) {
			t.advance()
			if t.peek() == '+' || t.peek() == '-' {
				t.advance()
			}
			for isDigit(t.peek()) {
				t.advance()
			}
		}
	}
	if t.peek() == 'j' || t.peek() == 'J' || t.peek() == 'l' || t.peek() == 'L' {
		t.advance()
	}
	return t.token(Number, start)
}

func (t *Tokenizer) scanOperator(start Position) Token {
	ch := t.peek()

	switch ch {
	case '(', '[', '{':
		t.depth++
		t.advance()
		return t.token(Op, start)
	case ')', ']', '}':
		if t.depth > 0 {
			t.depth--
		}
		t.advance()
		return t.token(Op, start)
	case ',', ';', '~', '`':
		t.advance()
		return t.token(Op, start)

	case '.':
		if t.peekN(1) == '.' && t.peekN(2) == '.' {
			t.advanceN(3)
			return t.token(Op, start)
		}
		t.advance()
		return t.token(Op, start)

	case '*':
		if t.peekN(1) == '*' {
			if t.peekN(2) == '=' {
				t.advanceN(3)
			} else {
				t.advanceN(2)
			}
			return t.token(Op, start)
		}
		return t.maybeAssign(start)

	case '/':
		if t.peekN(1) == '/' {
			if t.peekN(2) == '=' {
				t.advanceN(3)
			} else {
				t.advanceN(2)
			}
			return t.token(Op, start)
		}
		return t.maybeAssign(start)

	case '<':
		if t.peekN(1) == '<' {
			if t.peekN(2) == '=' {
				t.advanceN(3)
			} else {
				t.advanceN(2)
			}
			return t.token(Op, start)
		}
		return t.maybeAssign(start)

	case '>':
		if t.peekN(1) == '>' {
			if t.peekN(2) == '=' {
				t.advanceN(3)
			} else {
				t.advanceN(2)
			}
			return t.token(Op, start)
		}
		return t.maybeAssign(start)

	case '-':
		if t.peekN(1) == '>' {
			t.advanceN(2)
			return t.token(Op, start)
		}
		return t.maybeAssign(start)

	case ':':
		if t.peekN(1) == '=' {
			t.advanceN(2)
			return t.token(Op, start)
		}
		t.advance()
		return t.token(Op, start)

	case '=', '!', '+', '%', '&', '|', '^', '@':
		return t.maybeAssign(start)
	}

	// unknown byte, pass it through as a one-character operator token
	t.advance()
	return t.token(Op, start)
}

// maybeAssign consumes the operator at the cursor together with a trailing
// '=' when present (==, !=, +=, ...).
func (t *Tokenizer) maybeAssign(start Position) Token {
	t.advance()
	if t.peek() == '=' {
		t.advance()
	}
	return t.token(Op, start)
}

func (t *Tokenizer) token(kind Kind, start Position) Token {
	end := t.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(t.input[start.Offset:end.Offset]),
		Source:  t.sourceLine(start.Line),
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isNameStart(ch byte) bool {
	if ch >= 128 {
		r, _ := utf8.DecodeRune([]byte{ch})
		return unicode.IsLetter(r)
	}
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}
