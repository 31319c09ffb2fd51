package analyzer

import (
	"errors"
	"fmt"

	"github.com/go-python/gpython/compile"
	"github.com/go-python/gpython/py"

	"github.com/py2gomod/py2gomod/pysyntax"
)

// CheckCompiles compiles src the way the emitted module will load it:
// with annotations stripped, by the embedded interpreter's compiler.
// This reports syntax errors in code the signature parser skips, as well
// as constructs the interpreter does not support.
func CheckCompiles(path, src string) (err error) {
	stripped, err := pysyntax.StripAnnotations(src)
	if err != nil {
		return syntaxError(path, err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = &SyntaxError{Path: path, Msg: fmt.Sprintf("cannot compile: %v", r)}
		}
	}()
	if _, err := compile.Compile(stripped, path, "exec", 0, true); err != nil {
		return compileError(path, err)
	}
	return nil
}

func syntaxError(path string, err error) *SyntaxError {
	var se *pysyntax.Error
	if errors.As(err, &se) {
		return &SyntaxError{Path: path, Line: se.Pos.Line, Column: se.Pos.Column, Msg: se.Msg}
	}
	return &SyntaxError{Path: path, Msg: err.Error()}
}

// compileError converts a SyntaxError raised by the compiler.
func compileError(path string, err error) *SyntaxError {
	res := &SyntaxError{Path: path, Msg: err.Error()}
	var exc *py.Exception
	if !errors.As(err, &exc) {
		return res
	}
	if args, ok := exc.Args.(py.Tuple); ok && len(args) > 0 {
		if msg, ok := args[0].(py.String); ok {
			res.Msg = string(msg)
		}
	}
	if n, ok := exc.Dict["lineno"].(py.Int); ok {
		res.Line = int(n)
	}
	if n, ok := exc.Dict["offset"].(py.Int); ok {
		res.Column = int(n)
	}
	return res
}
