package pysyntax

import "strings"

// ExprKind tags the variant of an [Expr].
type ExprKind uint8

const (
	ExprName      ExprKind = iota // Name
	ExprAttribute                 // X.Name
	ExprCall                      // X(Elts..., Keywords...)
	ExprSubscript                 // X[Y]
	ExprTuple                     // (Elts...)
	ExprList                      // [Elts...]
	ExprSet                       // {Elts...}
	ExprDict                      // {Keys[i]: Elts[i]...}; a nil key is a "**" unpacking
	ExprConstant                  // Const, Value
	ExprBinOp                     // X Op Y
	ExprUnaryOp                   // Op X
	ExprBoolOp                    // X Op Y, Op is "and" or "or"
	ExprCompare                   // X Op Y
	ExprIfExp                     // X if Y else Elts[0]
	ExprStarred                   // *X
	ExprSlice                     // X:Y:Elts[0], any part may be nil
	ExprOpaque                    // lambda, comprehension, walrus, await; not inspected
)

var exprKindNames = [...]string{
	ExprName:      "Name",
	ExprAttribute: "Attribute",
	ExprCall:      "Call",
	ExprSubscript: "Subscript",
	ExprTuple:     "Tuple",
	ExprList:      "List",
	ExprSet:       "Set",
	ExprDict:      "Dict",
	ExprConstant:  "Constant",
	ExprBinOp:     "BinOp",
	ExprUnaryOp:   "UnaryOp",
	ExprBoolOp:    "BoolOp",
	ExprCompare:   "Compare",
	ExprIfExp:     "IfExp",
	ExprStarred:   "Starred",
	ExprSlice:     "Slice",
	ExprOpaque:    "Opaque",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "ExprKind(?)"
}

// ConstKind tags the value of an ExprConstant.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstTrue
	ConstFalse
	ConstEllipsis
	ConstNumber // Value holds the literal text
	ConstString // Value holds the decoded string
	ConstBytes  // Value holds the decoded bytes
)

type Keyword struct {
	Name  string // empty for a "**" unpacking
	Value *Expr
}

// Expr is an expression node. Which fields are meaningful depends on
// Kind, see the ExprKind constants.
type Expr struct {
	Kind     ExprKind
	Pos      Position
	Name     string
	Op       string
	X, Y     *Expr
	Elts     []*Expr
	Keys     []*Expr
	Keywords []Keyword
	Const    ConstKind
	Value    string
}

// IsNone reports whether e is the None literal.
func (e *Expr) IsNone() bool {
	return e != nil && e.Kind == ExprConstant && e.Const == ConstNone
}

// DottedName returns the dotted form of a name or attribute chain
// ("typing.List"), or false if e is not such a chain.
func (e *Expr) DottedName() (string, bool) {
	switch e.Kind {
	case ExprName:
		return e.Name, true
	case ExprAttribute:
		base, ok := e.X.DottedName()
		if !ok {
			return "", false
		}
		return base + "." + e.Name, true
	default:
		return "", false
	}
}

// String renders e back into approximate source form for diagnostics.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	if e == nil {
		return
	}
	list := func(elts []*Expr) {
		for i, x := range elts {
			if i > 0 {
				b.WriteString(", ")
			}
			x.write(b)
		}
	}
	switch e.Kind {
	case ExprName:
		b.WriteString(e.Name)
	case ExprAttribute:
		e.X.write(b)
		b.WriteString(".")
		b.WriteString(e.Name)
	case ExprCall:
		e.X.write(b)
		b.WriteString("(")
		list(e.Elts)
		for i, kw := range e.Keywords {
			if i > 0 || len(e.Elts) > 0 {
				b.WriteString(", ")
			}
			if kw.Name == "" {
				b.WriteString("**")
			} else {
				b.WriteString(kw.Name + "=")
			}
			kw.Value.write(b)
		}
		b.WriteString(")")
	case ExprSubscript:
		e.X.write(b)
		b.WriteString("[")
		if e.Y.Kind == ExprTuple && len(e.Y.Elts) > 0 {
			list(e.Y.Elts)
		} else {
			e.Y.write(b)
		}
		b.WriteString("]")
	case ExprTuple:
		b.WriteString("(")
		list(e.Elts)
		if len(e.Elts) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
	case ExprList:
		b.WriteString("[")
		list(e.Elts)
		b.WriteString("]")
	case ExprSet:
		b.WriteString("{")
		list(e.Elts)
		b.WriteString("}")
	case ExprDict:
		b.WriteString("{")
		for i := range e.Elts {
			if i > 0 {
				b.WriteString(", ")
			}
			if e.Keys[i] == nil {
				b.WriteString("**")
			} else {
				e.Keys[i].write(b)
				b.WriteString(": ")
			}
			e.Elts[i].write(b)
		}
		b.WriteString("}")
	case ExprConstant:
		switch e.Const {
		case ConstNone:
			b.WriteString("None")
		case ConstTrue:
			b.WriteString("True")
		case ConstFalse:
			b.WriteString("False")
		case ConstEllipsis:
			b.WriteString("...")
		case ConstNumber:
			b.WriteString(e.Value)
		case ConstString:
			b.WriteString(quotePy(e.Value))
		case ConstBytes:
			b.WriteString("b" + quotePy(e.Value))
		}
	case ExprBinOp, ExprBoolOp, ExprCompare:
		e.X.write(b)
		b.WriteString(" " + e.Op + " ")
		e.Y.write(b)
	case ExprUnaryOp:
		b.WriteString(e.Op)
		if e.Op == "not" {
			b.WriteString(" ")
		}
		e.X.write(b)
	case ExprIfExp:
		e.X.write(b)
		b.WriteString(" if ")
		e.Y.write(b)
		b.WriteString(" else ")
		e.Elts[0].write(b)
	case ExprStarred:
		b.WriteString("*")
		e.X.write(b)
	case ExprSlice:
		e.X.write(b)
		b.WriteString(":")
		e.Y.write(b)
		if len(e.Elts) > 0 {
			b.WriteString(":")
			e.Elts[0].write(b)
		}
	case ExprOpaque:
		b.WriteString(e.Value)
	}
}

func quotePy(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}

// StmtKind tags the variant of a [Stmt].
type StmtKind uint8

const (
	StmtFunctionDef StmtKind = iota
	StmtClassDef
	StmtExpr  // a bare string expression; only these are kept
	StmtOther // any statement that is skipped without inspection
)

// ParamKind describes how a function parameter may be passed.
type ParamKind uint8

const (
	ParamPositionalOrKeyword ParamKind = iota
	ParamPositionalOnly
	ParamKeywordOnly
	ParamVarArgs   // *args
	ParamVarKwargs // **kwargs
)

type Param struct {
	Name       string
	Pos        Position
	Kind       ParamKind
	Annotation *Expr // nil if not annotated
	HasDefault bool
}

// Stmt is a statement node. Which fields are meaningful depends on Kind.
type Stmt struct {
	Kind       StmtKind
	Pos        Position
	Name       string  // function or class name
	Decorators []*Expr // function or class decorators
	Async      bool    // async def
	Params     []Param
	Returns    *Expr     // return annotation, nil if missing
	Bases      []*Expr   // class bases
	Keywords   []Keyword // class keywords (metaclass=...)
	Body       []*Stmt
	Value      *Expr // StmtExpr value
}

// Docstring returns the docstring of a function or class body.
func (s *Stmt) Docstring() (string, bool) {
	if len(s.Body) == 0 {
		return "", false
	}
	first := s.Body[0]
	if first.Kind != StmtExpr || first.Value == nil || first.Value.Kind != ExprConstant || first.Value.Const != ConstString {
		return "", false
	}
	return first.Value.Value, true
}

// Module is a parsed source file.
type Module struct {
	Body []*Stmt
}
