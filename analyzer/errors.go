package analyzer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSyntax         = errors.New("invalid syntax")
	ErrMissingAnnotation     = errors.New("missing type annotation")
	ErrUnsupportedAnnotation = errors.New("unsupported type annotation")
	ErrMalformedUnion        = errors.New("only optional unions (T | None) are supported")
	ErrWrongArity            = errors.New("wrong number of type arguments")
	ErrUnsupportedFunction   = errors.New("unsupported function")
	ErrMissingNamespace      = errors.New("missing string literal 'namespace' argument in host_fns decorator")
)

// SyntaxError reports a source file that could not be parsed.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v:%v:%v: invalid syntax: %v", e.Path, e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidSyntax
}

// FunctionError reports a marked declaration that could not be
// extracted. Name is the function name, or the class name for host
// class errors.
type FunctionError struct {
	Path string
	Line int
	Name string
	Err  error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("%v:%v: %v: %v", e.Path, e.Line, e.Name, e.Err)
}

func (e *FunctionError) Unwrap() error {
	return e.Err
}
