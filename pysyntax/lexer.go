package pysyntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Error is a syntax error with its source position.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Lexer tokenizes Python source, producing the NEWLINE/INDENT/DEDENT
// structure of the language.
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int

	indents  []int
	brackets []Token // open brackets, innermost last
	atBOL    bool
	toks     []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	input = strings.TrimPrefix(input, "\ufeff")
	return &Lexer{
		input:   input,
		line:    1,
		indents: []int{0},
		atBOL:   true,
	}
}

// Tokenize returns all tokens of src, ending with TokenEOF.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Tokens()
}

func (l *Lexer) position() Position {
	return l.positionAt(l.pos)
}

func (l *Lexer) positionAt(offset int) Position {
	return Position{
		Offset: offset,
		Line:   l.line,
		Column: utf8.RuneCountInString(l.input[l.lineStart:offset]) + 1,
	}
}

func (l *Lexer) errorf(pos Position, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) emit(typ TokenType, lit string, pos Position) {
	l.toks = append(l.toks, Token{Type: typ, Literal: lit, Pos: pos})
}

// newline consumes a line terminator ("\n", "\r\n" or "\r") at l.pos.
func (l *Lexer) newline() {
	if l.input[l.pos] == '\r' && l.peekByte(1) == '\n' {
		l.pos++
	}
	l.pos++
	l.line++
	l.lineStart = l.pos
}

func (l *Lexer) lastType() TokenType {
	if len(l.toks) == 0 {
		return TokenNewline
	}
	return l.toks[len(l.toks)-1].Type
}

// Tokens runs the lexer to completion.
func (l *Lexer) Tokens() ([]Token, error) {
	for {
		if l.atBOL && len(l.brackets) == 0 {
			blank, err := l.indentation()
			if err != nil {
				return nil, err
			}
			if blank {
				continue
			}
		}
		if l.pos >= len(l.input) {
			return l.finish()
		}
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f':
			l.pos++
		case c == '#':
			l.skipComment()
		case c == '\\':
			if l.peekByte(1) == '\n' || l.peekByte(1) == '\r' {
				l.pos++
				l.newline()
				if l.pos >= len(l.input) {
					return nil, l.errorf(l.position(), "unexpected EOF after line continuation")
				}
				continue
			}
			return nil, l.errorf(l.position(), "unexpected character after line continuation character")
		case c == '\n' || c == '\r':
			if len(l.brackets) == 0 {
				l.emit(TokenNewline, "", l.position())
				l.atBOL = true
			}
			l.newline()
		case c >= '0' && c <= '9' || c == '.' && isDigit(l.peekByte(1)):
			l.number()
		case c == '\'' || c == '"':
			if err := l.str(l.pos); err != nil {
				return nil, err
			}
		default:
			r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
			if isIdentStart(r) {
				if err := l.nameOrPrefixedString(); err != nil {
					return nil, err
				}
				continue
			}
			if err := l.operator(); err != nil {
				return nil, err
			}
		}
	}
}

// indentation measures the indentation at the beginning of a line and
// emits INDENT/DEDENT tokens. blank is true if the line holds no tokens;
// such lines are consumed entirely.
func (l *Lexer) indentation() (blank bool, err error) {
	col := 0
	start := l.pos
measure:
	for ; l.pos < len(l.input); l.pos++ {
		switch l.input[l.pos] {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			break measure
		}
	}
	if l.pos >= len(l.input) {
		return false, nil
	}
	switch l.input[l.pos] {
	case '#':
		l.skipComment()
		if l.pos < len(l.input) {
			l.newline()
		}
		return true, nil
	case '\n', '\r':
		l.newline()
		return true, nil
	}
	l.atBOL = false

	pos := l.positionAt(l.pos)
	top := l.indents[len(l.indents)-1]
	switch {
	case col > top:
		l.indents = append(l.indents, col)
		l.emit(TokenIndent, l.input[start:l.pos], pos)
	case col < top:
		for col < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(TokenDedent, "", pos)
		}
		if col != l.indents[len(l.indents)-1] {
			return false, l.errorf(pos, "unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (l *Lexer) finish() ([]Token, error) {
	if len(l.brackets) > 0 {
		open := l.brackets[len(l.brackets)-1]
		return nil, l.errorf(open.Pos, "'%s' was never closed", open.Literal)
	}
	pos := l.position()
	if t := l.lastType(); t != TokenNewline && t != TokenDedent && t != TokenIndent {
		l.emit(TokenNewline, "", pos)
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(TokenDedent, "", pos)
	}
	l.emit(TokenEOF, "", pos)
	return l.toks, nil
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' && l.input[l.pos] != '\r' {
		l.pos++
	}
}

func (l *Lexer) number() {
	pos := l.position()
	start := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case isDigit(c) || c == '_' || c == '.' || isASCIILetter(c):
			l.pos++
		case (c == '+' || c == '-') && l.pos > start && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E') &&
			!strings.HasPrefix(strings.ToLower(l.input[start:]), "0x"):
			l.pos++
		default:
			l.emit(TokenNumber, l.input[start:l.pos], pos)
			return
		}
	}
	l.emit(TokenNumber, l.input[start:l.pos], pos)
}

func (l *Lexer) nameOrPrefixedString() error {
	pos := l.position()
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	name := l.input[start:l.pos]
	if l.pos < len(l.input) && (l.input[l.pos] == '\'' || l.input[l.pos] == '"') && isStringPrefix(name) {
		return l.str(start)
	}
	l.emit(TokenName, name, pos)
	return nil
}

// str scans a string literal whose prefix (if any) starts at start and
// whose opening quote is at l.pos.
func (l *Lexer) str(start int) error {
	pos := l.positionAt(start)
	startLine := l.line
	quote := l.input[l.pos]
	triple := l.peekByte(1) == quote && l.peekByte(2) == quote
	if triple {
		l.pos += 3
	} else {
		l.pos++
	}
	for {
		if l.pos >= len(l.input) {
			if triple {
				return l.errorf(pos, "unterminated triple-quoted string literal (detected at line %d)", l.line)
			}
			return l.errorf(pos, "unterminated string literal (detected at line %d)", startLine)
		}
		c := l.input[l.pos]
		switch {
		case c == '\\':
			l.pos++
			if l.pos < len(l.input) {
				if l.input[l.pos] == '\n' || l.input[l.pos] == '\r' {
					l.newline()
				} else {
					l.pos++
				}
			}
		case c == '\n' || c == '\r':
			if !triple {
				return l.errorf(pos, "unterminated string literal (detected at line %d)", startLine)
			}
			l.newline()
		case c == quote:
			if !triple {
				l.pos++
				l.emit(TokenString, l.input[start:l.pos], pos)
				return nil
			}
			if l.peekByte(1) == quote && l.peekByte(2) == quote {
				l.pos += 3
				l.emit(TokenString, l.input[start:l.pos], pos)
				return nil
			}
			l.pos++
		default:
			l.pos++
		}
	}
}

var closing = map[string]string{")": "(", "]": "[", "}": "{"}

func (l *Lexer) operator() error {
	pos := l.position()
	rest := l.input[l.pos:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		switch op {
		case "(", "[", "{":
			l.brackets = append(l.brackets, Token{Type: TokenOp, Literal: op, Pos: pos})
		case ")", "]", "}":
			if len(l.brackets) == 0 {
				return l.errorf(pos, "unmatched '%s'", op)
			}
			open := l.brackets[len(l.brackets)-1]
			if open.Literal != closing[op] {
				return l.errorf(pos, "closing parenthesis '%s' does not match opening parenthesis '%s'", op, open.Literal)
			}
			l.brackets = l.brackets[:len(l.brackets)-1]
		case "!":
			return l.errorf(pos, "invalid syntax")
		}
		l.pos += len(op)
		l.emit(TokenOp, op, pos)
		return nil
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return l.errorf(pos, "invalid character '%c' (U+%04X)", r, r)
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func isDigit(c byte) bool       { return c >= '0' && c <= '9' }
func isASCIILetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

