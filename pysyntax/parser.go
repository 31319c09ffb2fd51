package pysyntax

import (
	"errors"
	"fmt"
	"strings"
)

// Parse parses Python source into a [Module].
//
// Only the structure needed for signature extraction is retained:
// function and class definitions (recursively), their decorators,
// parameters and annotations, and string expression statements. All other
// statements are checked for balanced structure and skipped.
func Parse(src string) (*Module, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	body, err := p.statements(TokenEOF)
	if err != nil {
		return nil, err
	}
	return &Module{Body: body}, nil
}

// ParseExpr parses a single expression, e.g. an annotation.
func ParseExpr(src string) (*Expr, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	x, err := p.exprList()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenNewline {
		p.next()
	}
	if t := p.peek(); t.Type != TokenEOF {
		return nil, p.unexpected(t)
	}
	return x, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.peekN(0) }

func (p *parser) peekN(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(literal string) bool {
	return p.peek().Is(literal)
}

func (p *parser) accept(literal string) bool {
	if p.at(literal) {
		p.next()
		return true
	}
	return false
}

func (p *parser) errorf(pos Position, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(t Token) error {
	switch t.Type {
	case TokenEOF:
		return p.errorf(t.Pos, "unexpected EOF while parsing")
	case TokenIndent:
		return p.errorf(t.Pos, "unexpected indent")
	case TokenDedent:
		return p.errorf(t.Pos, "unexpected unindent")
	case TokenNewline:
		return p.errorf(t.Pos, "invalid syntax: unexpected end of line")
	default:
		return p.errorf(t.Pos, "invalid syntax: unexpected %q", t.Literal)
	}
}

func (p *parser) expect(literal string) (Token, error) {
	t := p.peek()
	if !t.Is(literal) {
		if t.Type == TokenEOF || t.Type == TokenNewline {
			return t, p.errorf(t.Pos, "expected '%s'", literal)
		}
		return t, p.errorf(t.Pos, "expected '%s', found %q", literal, t.Literal)
	}
	return p.next(), nil
}

func (p *parser) expectType(typ TokenType) (Token, error) {
	t := p.peek()
	switch {
	case t.Type == typ:
		return p.next(), nil
	case typ == TokenNewline && t.Type == TokenEOF:
		return t, nil
	case typ == TokenIndent:
		return t, p.errorf(t.Pos, "expected an indented block")
	default:
		return t, p.unexpected(t)
	}
}

func (p *parser) expectName() (Token, error) {
	t := p.peek()
	if t.Type != TokenName || IsKeyword(t.Literal) {
		return t, p.errorf(t.Pos, "expected identifier, found %q", t.Literal)
	}
	return p.next(), nil
}

// statements parses statements until the end token, which is consumed
// unless it is EOF.
func (p *parser) statements(end TokenType) ([]*Stmt, error) {
	var body []*Stmt
	for {
		t := p.peek()
		switch {
		case t.Type == end:
			if end != TokenEOF {
				p.next()
			}
			return body, nil
		case t.Type == TokenEOF:
			return nil, p.unexpected(t)
		case t.Type == TokenNewline:
			p.next()
			continue
		case t.Type == TokenIndent || t.Type == TokenDedent:
			return nil, p.unexpected(t)
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, st)
	}
}

func (p *parser) statement() (*Stmt, error) {
	t := p.peek()
	switch {
	case t.Is("@"):
		return p.decorated()
	case t.Is("def"):
		return p.funcDef(nil)
	case t.Is("async") && p.peekN(1).Is("def"):
		return p.funcDef(nil)
	case t.Is("class"):
		return p.classDef(nil)
	default:
		return p.simpleOrCompound()
	}
}

func (p *parser) decorated() (*Stmt, error) {
	var decorators []*Expr
	for p.at("@") {
		p.next()
		x, err := p.namedExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(TokenNewline); err != nil {
			return nil, err
		}
		decorators = append(decorators, x)
	}
	switch t := p.peek(); {
	case t.Is("def"), t.Is("async") && p.peekN(1).Is("def"):
		return p.funcDef(decorators)
	case t.Is("class"):
		return p.classDef(decorators)
	default:
		return nil, p.errorf(t.Pos, "expected function or class definition after decorator")
	}
}

func (p *parser) funcDef(decorators []*Expr) (*Stmt, error) {
	st := &Stmt{Kind: StmtFunctionDef, Pos: p.peek().Pos, Decorators: decorators}
	if p.accept("async") {
		st.Async = true
	}
	if _, err := p.expect("def"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	st.Name = name.Literal
	if p.at("[") {
		// PEP 695 type parameters.
		if err := p.skipBracketed(); err != nil {
			return nil, err
		}
	}
	if st.Params, err = p.params(); err != nil {
		return nil, err
	}
	if p.accept("->") {
		if st.Returns, err = p.test(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	if st.Body, err = p.suite(); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *parser) classDef(decorators []*Expr) (*Stmt, error) {
	st := &Stmt{Kind: StmtClassDef, Pos: p.peek().Pos, Decorators: decorators}
	if _, err := p.expect("class"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	st.Name = name.Literal
	if p.at("[") {
		if err := p.skipBracketed(); err != nil {
			return nil, err
		}
	}
	if p.accept("(") {
		if st.Bases, st.Keywords, err = p.callArgs(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	if st.Body, err = p.suite(); err != nil {
		return nil, err
	}
	return st, nil
}

// suite parses the body following a compound statement header's colon.
func (p *parser) suite() ([]*Stmt, error) {
	if p.peek().Type != TokenNewline {
		st, err := p.simpleOrCompound()
		if err != nil {
			return nil, err
		}
		return []*Stmt{st}, nil
	}
	p.next()
	if _, err := p.expectType(TokenIndent); err != nil {
		return nil, err
	}
	return p.statements(TokenDedent)
}

// params parses a parenthesized parameter list.
func (p *parser) params() ([]Param, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var params []Param
	kind := ParamPositionalOrKeyword
	seen := map[string]bool{}
	slash := false
	for !p.at(")") {
		t := p.peek()
		switch {
		case t.Is("/"):
			p.next()
			if slash || kind != ParamPositionalOrKeyword || len(params) == 0 {
				return nil, p.errorf(t.Pos, "invalid syntax: '/' must follow at least one positional parameter")
			}
			slash = true
			for i := range params {
				params[i].Kind = ParamPositionalOnly
			}
		case t.Is("*") && (p.peekN(1).Is(",") || p.peekN(1).Is(")")):
			p.next()
			if kind == ParamKeywordOnly {
				return nil, p.errorf(t.Pos, "invalid syntax: '*' may appear only once")
			}
			kind = ParamKeywordOnly
		default:
			pkind := kind
			if p.accept("*") {
				if kind == ParamKeywordOnly {
					return nil, p.errorf(t.Pos, "invalid syntax: '*' may appear only once")
				}
				pkind = ParamVarArgs
				kind = ParamKeywordOnly
			} else if p.accept("**") {
				pkind = ParamVarKwargs
			}
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			if seen[name.Literal] {
				return nil, p.errorf(name.Pos, "duplicate argument '%s' in function definition", name.Literal)
			}
			seen[name.Literal] = true
			param := Param{Name: name.Literal, Pos: name.Pos, Kind: pkind}
			if p.accept(":") {
				if pkind == ParamVarArgs && p.at("*") {
					param.Annotation, err = p.starExpr()
				} else {
					param.Annotation, err = p.test()
				}
				if err != nil {
					return nil, err
				}
			}
			if p.accept("=") {
				if pkind == ParamVarArgs || pkind == ParamVarKwargs {
					return nil, p.errorf(name.Pos, "invalid syntax: var-positional and var-keyword parameters cannot have defaults")
				}
				if err := p.skipDefault(); err != nil {
					return nil, err
				}
				param.HasDefault = true
			}
			params = append(params, param)
			if pkind == ParamVarKwargs && !p.at(")") && !(p.at(",") && p.peekN(1).Is(")")) {
				return nil, p.errorf(p.peek().Pos, "invalid syntax: parameters cannot follow var-keyword parameter")
			}
		}
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return params, nil
}

// skipDefault consumes a parameter default value up to the next
// top-level ',' or ')'.
func (p *parser) skipDefault() error {
	depth := 0
	start := p.peek()
	for {
		t := p.peek()
		switch {
		case t.Type == TokenEOF || t.Type == TokenNewline:
			return p.unexpected(t)
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			if depth == 0 {
				if t == start {
					return p.errorf(t.Pos, "expected default value")
				}
				return nil
			}
			depth--
		case t.Is(",") && depth == 0:
			if t == start {
				return p.errorf(t.Pos, "expected default value")
			}
			return nil
		case t.Is("lambda") && depth == 0:
			// Skip the lambda's own parameter list, which may contain commas.
			p.next()
			for !p.at(":") {
				if p.peek().Type == TokenEOF || p.peek().Type == TokenNewline {
					return p.unexpected(p.peek())
				}
				p.next()
			}
		}
		p.next()
	}
}

// skipBracketed skips a balanced bracketed token run starting at an
// opening bracket.
func (p *parser) skipBracketed() error {
	depth := 0
	for {
		t := p.next()
		switch {
		case t.Type == TokenEOF:
			return p.unexpected(t)
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

// skipToClose consumes tokens up to and including the closing bracket
// that matches an already consumed opening bracket.
func (p *parser) skipToClose() error {
	depth := 1
	for {
		t := p.next()
		switch {
		case t.Type == TokenEOF:
			return p.unexpected(t)
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

// simpleOrCompound handles every statement other than def and class.
// A statement made only of string literals is kept as a StmtExpr (it may
// be a docstring); anything else is skipped, including the indented block
// of a compound statement.
func (p *parser) simpleOrCompound() (*Stmt, error) {
	start := p.peek()
	if start.Type == TokenString {
		j := p.pos
		for p.toks[j].Type == TokenString {
			j++
		}
		if end := p.toks[j]; end.Type == TokenNewline || end.Type == TokenEOF || end.Is(";") {
			x, err := p.atom()
			if err != nil {
				return nil, err
			}
			if err := p.skipLine(); err != nil {
				return nil, err
			}
			return &Stmt{Kind: StmtExpr, Pos: start.Pos, Value: x}, nil
		}
	}

	endsWithColon := false
	for {
		t := p.peek()
		if t.Type == TokenNewline || t.Type == TokenEOF {
			break
		}
		if t.Type == TokenIndent || t.Type == TokenDedent {
			return nil, p.unexpected(t)
		}
		endsWithColon = t.Is(":")
		p.next()
	}
	if p.peek().Type == TokenNewline {
		p.next()
	}
	switch {
	case endsWithColon && p.peek().Type != TokenIndent:
		return nil, p.errorf(p.peek().Pos, "expected an indented block after '%s' statement on line %d", start.Literal, start.Pos.Line)
	case p.peek().Type == TokenIndent && !endsWithColon:
		return nil, p.unexpected(p.peek())
	case p.peek().Type == TokenIndent:
		p.next()
		if err := p.skipBlock(); err != nil {
			return nil, err
		}
	}
	return &Stmt{Kind: StmtOther, Pos: start.Pos}, nil
}

// skipLine consumes the rest of the current logical line.
func (p *parser) skipLine() error {
	for {
		t := p.peek()
		switch t.Type {
		case TokenEOF:
			return nil
		case TokenNewline:
			p.next()
			return nil
		case TokenIndent, TokenDedent:
			return p.unexpected(t)
		}
		p.next()
	}
}

// skipBlock consumes an indented block whose INDENT was already consumed.
func (p *parser) skipBlock() error {
	depth := 1
	for depth > 0 {
		t := p.next()
		switch t.Type {
		case TokenIndent:
			depth++
		case TokenDedent:
			depth--
		case TokenEOF:
			return p.unexpected(t)
		}
	}
	return nil
}

//
// Expressions
//

// Binary operator precedences; higher binds tighter. "not", unary
// arithmetic and "**" are handled outside of the table.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precArith
	precTerm
	precUnary
)

var binaryPrec = map[string]int{
	"or": precOr, "and": precAnd,
	"<": precCompare, ">": precCompare, "==": precCompare, ">=": precCompare,
	"<=": precCompare, "!=": precCompare, "in": precCompare, "is": precCompare,
	"|": precBitOr, "^": precBitXor, "&": precBitAnd,
	"<<": precShift, ">>": precShift,
	"+": precArith, "-": precArith,
	"*": precTerm, "/": precTerm, "//": precTerm, "%": precTerm, "@": precTerm,
}

// binaryOp returns the operator at the current position along with the
// number of tokens it spans.
func (p *parser) binaryOp() (op string, prec, width int) {
	t := p.peek()
	if t.Type != TokenOp && t.Type != TokenName {
		return "", 0, 0
	}
	switch {
	case t.Is("not") && p.peekN(1).Is("in"):
		return "not in", precCompare, 2
	case t.Is("is") && p.peekN(1).Is("not"):
		return "is not", precCompare, 2
	}
	if t.Type == TokenName && t.Literal != "or" && t.Literal != "and" && t.Literal != "in" && t.Literal != "is" {
		return "", 0, 0
	}
	prec, ok := binaryPrec[t.Literal]
	if !ok {
		return "", 0, 0
	}
	return t.Literal, prec, 1
}

// exprList parses a possibly unparenthesized tuple ("a, b").
func (p *parser) exprList() (*Expr, error) {
	pos := p.peek().Pos
	first, err := p.starOrTest()
	if err != nil {
		return nil, err
	}
	if !p.at(",") {
		return first, nil
	}
	elts := []*Expr{first}
	for p.accept(",") {
		if p.endOfExprList() {
			break
		}
		x, err := p.starOrTest()
		if err != nil {
			return nil, err
		}
		elts = append(elts, x)
	}
	return &Expr{Kind: ExprTuple, Pos: pos, Elts: elts}, nil
}

func (p *parser) endOfExprList() bool {
	t := p.peek()
	return t.Type == TokenNewline || t.Type == TokenEOF || t.Is(")") || t.Is("]") || t.Is("}") || t.Is("=") || t.Is(":")
}

// namedExpr parses a test that may be an assignment expression.
func (p *parser) namedExpr() (*Expr, error) {
	x, err := p.test()
	if err != nil {
		return nil, err
	}
	if p.at(":=") {
		pos := p.next().Pos
		if _, err := p.test(); err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOpaque, Pos: pos, Value: x.String() + " := ..."}, nil
	}
	return x, nil
}

func (p *parser) starOrTest() (*Expr, error) {
	if p.at("*") {
		return p.starExpr()
	}
	return p.namedExpr()
}

func (p *parser) starExpr() (*Expr, error) {
	t, err := p.expect("*")
	if err != nil {
		return nil, err
	}
	x, err := p.binary(precBitOr)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprStarred, Pos: t.Pos, X: x}, nil
}

// test parses a full expression without tuples: conditional expressions
// and lambdas included.
func (p *parser) test() (*Expr, error) {
	if p.at("lambda") {
		return p.lambda()
	}
	x, err := p.binary(precOr)
	if err != nil {
		return nil, err
	}
	if p.at("if") {
		pos := p.next().Pos
		cond, err := p.binary(precOr)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("else"); err != nil {
			return nil, err
		}
		other, err := p.test()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprIfExp, Pos: pos, X: x, Y: cond, Elts: []*Expr{other}}, nil
	}
	return x, nil
}

func (p *parser) lambda() (*Expr, error) {
	t := p.next()
	for !p.at(":") {
		if tt := p.peek(); tt.Type == TokenNewline || tt.Type == TokenEOF {
			return nil, p.unexpected(tt)
		}
		p.next()
	}
	p.next()
	if _, err := p.test(); err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "lambda: ..."}, nil
}

func (p *parser) binary(minPrec int) (*Expr, error) {
	left, err := p.unary(minPrec)
	if err != nil {
		return nil, err
	}
	for {
		op, prec, width := p.binaryOp()
		if width == 0 || prec < minPrec {
			return left, nil
		}
		pos := p.peek().Pos
		for range width {
			p.next()
		}
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		kind := ExprBinOp
		switch prec {
		case precOr, precAnd:
			kind = ExprBoolOp
		case precCompare:
			kind = ExprCompare
		}
		left = &Expr{Kind: kind, Pos: pos, Op: op, X: left, Y: right}
	}
}

func (p *parser) unary(minPrec int) (*Expr, error) {
	t := p.peek()
	switch {
	case t.Is("not") && minPrec <= precNot:
		p.next()
		x, err := p.binary(precNot)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnaryOp, Pos: t.Pos, Op: "not", X: x}, nil
	case t.Type == TokenOp && (t.Literal == "-" || t.Literal == "+" || t.Literal == "~"):
		p.next()
		x, err := p.binary(precUnary)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnaryOp, Pos: t.Pos, Op: t.Literal, X: x}, nil
	}
	return p.power()
}

func (p *parser) power() (*Expr, error) {
	t := p.peek()
	if t.Is("await") {
		p.next()
		x, err := p.power()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "await " + x.String()}, nil
	}
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.at("**") {
		pos := p.next().Pos
		y, err := p.binary(precUnary)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprBinOp, Pos: pos, Op: "**", X: x, Y: y}, nil
	}
	return x, nil
}

func (p *parser) primary() (*Expr, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.Is("."):
			p.next()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			x = &Expr{Kind: ExprAttribute, Pos: name.Pos, X: x, Name: name.Literal}
		case t.Is("("):
			p.next()
			args, kws, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			x = &Expr{Kind: ExprCall, Pos: t.Pos, X: x, Elts: args, Keywords: kws}
		case t.Is("["):
			p.next()
			idx, err := p.subscript()
			if err != nil {
				return nil, err
			}
			x = &Expr{Kind: ExprSubscript, Pos: t.Pos, X: x, Y: idx}
		default:
			return x, nil
		}
	}
}

// callArgs parses call arguments after the opening parenthesis, consuming
// the closing one.
func (p *parser) callArgs() (args []*Expr, kws []Keyword, err error) {
	for !p.at(")") {
		t := p.peek()
		switch {
		case t.Is("**"):
			p.next()
			x, err := p.test()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, Keyword{Value: x})
		case t.Is("*"):
			x, err := p.starExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, x)
		case t.Type == TokenName && !IsKeyword(t.Literal) && p.peekN(1).Is("="):
			p.next()
			p.next()
			x, err := p.test()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, Keyword{Name: t.Literal, Value: x})
		default:
			x, err := p.namedExpr()
			if err != nil {
				return nil, nil, err
			}
			if p.at("for") || p.at("async") {
				// Generator argument.
				if err := p.skipToClose(); err != nil {
					return nil, nil, err
				}
				return append(args, &Expr{Kind: ExprOpaque, Pos: x.Pos, Value: "(generator)"}), kws, nil
			}
			args = append(args, x)
		}
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, nil, err
	}
	return args, kws, nil
}

// subscript parses the bracket contents of a subscript, consuming the
// closing bracket. Multiple items yield an ExprTuple, matching Python's
// own AST.
func (p *parser) subscript() (*Expr, error) {
	pos := p.peek().Pos
	var items []*Expr
	trailingComma := false
	for !p.at("]") {
		x, err := p.sliceItem()
		if err != nil {
			return nil, err
		}
		items = append(items, x)
		trailingComma = false
		if !p.accept(",") {
			break
		}
		trailingComma = true
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	switch {
	case len(items) == 0:
		return nil, p.errorf(pos, "invalid syntax: empty subscript")
	case len(items) == 1 && !trailingComma:
		return items[0], nil
	default:
		return &Expr{Kind: ExprTuple, Pos: pos, Elts: items}, nil
	}
}

func (p *parser) sliceItem() (*Expr, error) {
	pos := p.peek().Pos
	var lower *Expr
	if !p.at(":") {
		x, err := p.starOrTest()
		if err != nil {
			return nil, err
		}
		if !p.at(":") {
			return x, nil
		}
		lower = x
	}
	p.next()
	slice := &Expr{Kind: ExprSlice, Pos: pos, X: lower}
	if !p.at(":") && !p.at("]") && !p.at(",") {
		y, err := p.test()
		if err != nil {
			return nil, err
		}
		slice.Y = y
	}
	if p.accept(":") && !p.at("]") && !p.at(",") {
		step, err := p.test()
		if err != nil {
			return nil, err
		}
		slice.Elts = []*Expr{step}
	}
	return slice, nil
}

func (p *parser) atom() (*Expr, error) {
	t := p.peek()
	switch t.Type {
	case TokenName:
		switch t.Literal {
		case "None":
			p.next()
			return &Expr{Kind: ExprConstant, Pos: t.Pos, Const: ConstNone}, nil
		case "True":
			p.next()
			return &Expr{Kind: ExprConstant, Pos: t.Pos, Const: ConstTrue}, nil
		case "False":
			p.next()
			return &Expr{Kind: ExprConstant, Pos: t.Pos, Const: ConstFalse}, nil
		}
		if IsKeyword(t.Literal) {
			return nil, p.unexpected(t)
		}
		p.next()
		return &Expr{Kind: ExprName, Pos: t.Pos, Name: t.Literal}, nil
	case TokenNumber:
		p.next()
		return &Expr{Kind: ExprConstant, Pos: t.Pos, Const: ConstNumber, Value: t.Literal}, nil
	case TokenString:
		return p.stringLit()
	case TokenOp:
		switch t.Literal {
		case "...":
			p.next()
			return &Expr{Kind: ExprConstant, Pos: t.Pos, Const: ConstEllipsis}, nil
		case "(":
			return p.parenthesized()
		case "[":
			p.next()
			elts, opaque, err := p.displayItems("]")
			if err != nil {
				return nil, err
			}
			if opaque {
				return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "[comprehension]"}, nil
			}
			return &Expr{Kind: ExprList, Pos: t.Pos, Elts: elts}, nil
		case "{":
			return p.braced()
		}
	}
	return nil, p.unexpected(t)
}

// stringLit parses one or more adjacent string literals, which Python
// concatenates.
func (p *parser) stringLit() (*Expr, error) {
	pos := p.peek().Pos
	var b strings.Builder
	kind := ConstString
	for i := 0; p.peek().Type == TokenString; i++ {
		t := p.next()
		isBytes := strings.ContainsAny(t.Literal[:strings.IndexAny(t.Literal, `'"`)], "bB")
		if i == 0 && isBytes {
			kind = ConstBytes
		} else if (kind == ConstBytes) != isBytes {
			return nil, p.errorf(t.Pos, "cannot mix bytes and nonbytes literals")
		}
		s, err := UnquoteString(t.Literal)
		if err != nil {
			var se *Error
			if errors.As(err, &se) {
				se.Pos = t.Pos
			}
			return nil, err
		}
		b.WriteString(s)
	}
	return &Expr{Kind: ExprConstant, Pos: pos, Const: kind, Value: b.String()}, nil
}

func (p *parser) parenthesized() (*Expr, error) {
	t := p.next()
	if p.accept(")") {
		return &Expr{Kind: ExprTuple, Pos: t.Pos}, nil
	}
	if p.at("yield") {
		if err := p.skipToClose(); err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "(yield)"}, nil
	}
	first, err := p.starOrTest()
	if err != nil {
		return nil, err
	}
	switch {
	case p.at("for") || p.at("async"):
		if err := p.skipToClose(); err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "(generator)"}, nil
	case p.accept(")"):
		return first, nil
	}
	if _, err := p.expect(","); err != nil {
		return nil, err
	}
	elts := []*Expr{first}
	for !p.at(")") {
		x, err := p.starOrTest()
		if err != nil {
			return nil, err
		}
		elts = append(elts, x)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprTuple, Pos: t.Pos, Elts: elts}, nil
}

// displayItems parses comma-separated display elements up to and
// including the closing bracket. opaque is set if the display turned
// out to be a comprehension.
func (p *parser) displayItems(closeLit string) (elts []*Expr, opaque bool, err error) {
	for !p.at(closeLit) {
		x, err := p.starOrTest()
		if err != nil {
			return nil, false, err
		}
		if p.at("for") || p.at("async") {
			if err := p.skipToClose(); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}
		elts = append(elts, x)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(closeLit); err != nil {
		return nil, false, err
	}
	return elts, false, nil
}

func (p *parser) braced() (*Expr, error) {
	t := p.next()
	if p.accept("}") {
		return &Expr{Kind: ExprDict, Pos: t.Pos}, nil
	}
	if !p.at("**") {
		first, err := p.starOrTest()
		if err != nil {
			return nil, err
		}
		if !p.at(":") {
			// Set display.
			if p.at("for") || p.at("async") {
				if err := p.skipToClose(); err != nil {
					return nil, err
				}
				return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "{comprehension}"}, nil
			}
			elts := []*Expr{first}
			if p.accept(",") {
				rest, opaque, err := p.displayItems("}")
				if err != nil {
					return nil, err
				}
				if opaque {
					return nil, p.errorf(t.Pos, "invalid syntax: comprehension in set display")
				}
				elts = append(elts, rest...)
			} else if _, err := p.expect("}"); err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprSet, Pos: t.Pos, Elts: elts}, nil
		}
		p.next()
		value, err := p.test()
		if err != nil {
			return nil, err
		}
		if p.at("for") || p.at("async") {
			if err := p.skipToClose(); err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprOpaque, Pos: t.Pos, Value: "{comprehension}"}, nil
		}
		d := &Expr{Kind: ExprDict, Pos: t.Pos, Keys: []*Expr{first}, Elts: []*Expr{value}}
		if !p.accept(",") {
			if _, err := p.expect("}"); err != nil {
				return nil, err
			}
			return d, nil
		}
		return p.dictRest(d)
	}
	return p.dictRest(&Expr{Kind: ExprDict, Pos: t.Pos})
}

func (p *parser) dictRest(d *Expr) (*Expr, error) {
	for !p.at("}") {
		if p.accept("**") {
			x, err := p.binary(precBitOr)
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, nil)
			d.Elts = append(d.Elts, x)
		} else {
			k, err := p.test()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(":"); err != nil {
				return nil, err
			}
			v, err := p.test()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Elts = append(d.Elts, v)
		}
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return d, nil
}
