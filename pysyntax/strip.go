package pysyntax

import (
	"slices"
	"strings"
)

// StripAnnotations returns src without type annotations: parameter and
// return annotations of every def, the annotations of annotated
// assignments, positional-only markers and __future__ imports. An
// annotated name without a value becomes pass. Line numbers are kept;
// columns after a removed annotation shift.
func StripAnnotations(src string) (string, error) {
	src = strings.TrimPrefix(src, "\ufeff")
	toks, err := Tokenize(src)
	if err != nil {
		return "", err
	}
	s := &stripper{src: src, toks: toks}
	for i := 0; i < len(toks); {
		i = s.statement(i)
	}
	return s.apply(), nil
}

type edit struct {
	start, end int
	repl       string
}

type stripper struct {
	src   string
	toks  []Token
	edits []edit
}

var compoundKeywords = map[string]bool{
	"if": true, "elif": true, "else": true, "while": true, "for": true,
	"try": true, "except": true, "finally": true, "with": true, "class": true,
}

func isOpen(t Token) bool {
	return t.Type == TokenOp && (t.Literal == "(" || t.Literal == "[" || t.Literal == "{")
}

func isClose(t Token) bool {
	return t.Type == TokenOp && (t.Literal == ")" || t.Literal == "]" || t.Literal == "}")
}

// statementEnd reports whether t terminates a simple statement.
func statementEnd(t Token) bool {
	return t.Type == TokenNewline || t.Type == TokenEOF || t.Is(";")
}

// statement processes the statement starting at token i and returns the
// index of the next token to process. Compound statements return right
// after their header, so that their bodies are processed as statements
// of their own.
func (s *stripper) statement(i int) int {
	t := s.toks[i]
	switch {
	case t.Type != TokenName && t.Type != TokenOp && t.Type != TokenString && t.Type != TokenNumber:
		return i + 1
	case t.Is(";"):
		return i + 1
	case t.Is("async"):
		return i + 1
	case t.Is("def"):
		return s.def(i)
	case t.Type == TokenName && compoundKeywords[t.Literal]:
		return s.header(i)
	case t.Is("from") && s.toks[i+1].Is("__future__"):
		end := s.end(i)
		s.replace(t.Pos.Offset, s.toks[end].Pos.Offset, end, "pass")
		return end
	}

	end := s.end(i)
	j := s.target(i)
	if j < 0 || !s.toks[j].Is(":") || statementEnd(s.toks[j+1]) {
		return end
	}
	k, depth := j+1, 0
	for ; k < end; k++ {
		t := s.toks[k]
		if depth == 0 && t.Is("=") {
			break
		}
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
		}
	}
	if k < end {
		s.replace(tokEnd(s.toks[j-1]), s.toks[k+1].Pos.Offset, k, " = ")
	} else {
		s.replace(t.Pos.Offset, s.toks[end].Pos.Offset, end, "pass")
	}
	return end
}

// end returns the index of the token terminating the simple statement
// that contains token i.
func (s *stripper) end(i int) int {
	for !statementEnd(s.toks[i]) {
		i++
	}
	return i
}

// closing returns the index of the bracket closing the one at i, or -1.
func (s *stripper) closing(i int) int {
	depth := 0
	for ; i < len(s.toks); i++ {
		switch t := s.toks[i]; {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
			if depth == 0 {
				return i
			}
		case t.Type == TokenEOF:
			return -1
		}
	}
	return -1
}

// target returns the index after an assignment target shaped name,
// attribute or subscript starting at i, or -1.
func (s *stripper) target(i int) int {
	t := s.toks[i]
	switch {
	case t.Type == TokenName && !IsKeyword(t.Literal):
		i++
	case t.Is("("):
		j := s.closing(i)
		if j < 0 {
			return -1
		}
		i = j + 1
	default:
		return -1
	}
	for {
		switch t := s.toks[i]; {
		case t.Is(".") && s.toks[i+1].Type == TokenName:
			i += 2
		case t.Is("[") || t.Is("("):
			j := s.closing(i)
			if j < 0 {
				return -1
			}
			i = j + 1
		default:
			return i
		}
	}
}

// header returns the index after the colon ending the compound
// statement header at i. Colons of lambdas are skipped.
func (s *stripper) header(i int) int {
	depth, lambdas := 0, 0
	for ; i < len(s.toks); i++ {
		t := s.toks[i]
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
		case depth > 0:
		case t.Is("lambda"):
			lambdas++
		case t.Is(":"):
			if lambdas == 0 {
				return i + 1
			}
			lambdas--
		case t.Type == TokenNewline || t.Type == TokenEOF:
			return i
		}
	}
	return i
}

// def strips the annotations of the function header at i.
func (s *stripper) def(i int) int {
	j := i + 2
	if s.toks[j].Is("[") {
		if j = s.closing(j); j < 0 {
			return s.header(i)
		}
		j++
	}
	if !s.toks[j].Is("(") {
		return s.header(i)
	}
	closeIdx := s.closing(j)
	if closeIdx < 0 {
		return s.header(i)
	}

	depth, ann, lastComma := 0, -1, -1
	inDefault, paramStart := false, true
	endParam := func(k int) {
		if ann < 0 {
			return
		}
		start := tokEnd(s.toks[ann-1])
		if s.toks[k].Is("=") {
			s.replace(start, s.toks[k+1].Pos.Offset, k, "=")
		} else {
			s.replace(start, s.toks[k].Pos.Offset, k, "")
		}
		ann = -1
	}
	for k := j + 1; k < closeIdx; k++ {
		t := s.toks[k]
		if depth == 0 {
			switch {
			case paramStart && t.Is("/"):
				if s.toks[k+1].Is(",") {
					s.replace(t.Pos.Offset, s.toks[k+2].Pos.Offset, k, "")
				} else if lastComma >= 0 {
					s.replace(s.toks[lastComma].Pos.Offset, tokEnd(t), k, "")
				}
			case t.Is(","):
				endParam(k)
				inDefault, paramStart, lastComma = false, true, k
				continue
			case t.Is("="):
				endParam(k)
				inDefault = true
			case t.Is(":") && !inDefault && ann < 0:
				ann = k
			}
		}
		paramStart = false
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
		}
	}
	endParam(closeIdx)

	k := closeIdx + 1
	if s.toks[k].Is("->") {
		colon := s.header(k)
		if s.toks[colon-1].Is(":") {
			s.replace(tokEnd(s.toks[closeIdx]), s.toks[colon-1].Pos.Offset, k, "")
		}
		return colon
	}
	if s.toks[k].Is(":") {
		return k + 1
	}
	return s.header(k)
}

func tokEnd(t Token) int {
	return t.Pos.Offset + len(t.Literal)
}

// replace replaces src[start:end] by repl. Line breaks inside the
// replaced text move to the end of the logical line holding token k.
func (s *stripper) replace(start, end, k int, repl string) {
	s.edits = append(s.edits, edit{start: start, end: end, repl: repl})
	if n := strings.Count(s.src[start:end], "\n"); n > 0 {
		for s.toks[k].Type != TokenNewline && s.toks[k].Type != TokenEOF {
			k++
		}
		eol := s.toks[k].Pos.Offset
		s.edits = append(s.edits, edit{start: eol, end: eol, repl: strings.Repeat("\n", n)})
	}
}

func (s *stripper) apply() string {
	slices.SortStableFunc(s.edits, func(a, b edit) int { return a.start - b.start })
	var b strings.Builder
	pos := 0
	for _, e := range s.edits {
		if e.start < pos {
			continue
		}
		b.WriteString(s.src[pos:e.start])
		b.WriteString(e.repl)
		pos = e.end
	}
	b.WriteString(s.src[pos:])
	return b.String()
}
