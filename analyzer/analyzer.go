// Package analyzer extracts typed function signatures from Python source.
//
// Only top-level declarations are inspected. Functions decorated with
// mod_fn become module functions; classes decorated with
// host_fns(namespace=...) contribute their host_fn methods as host
// functions.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/pysyntax"
)

const (
	MarkerModuleFunction = "mod_fn"
	MarkerHostClass      = "host_fns"
	MarkerHostFunction   = "host_fn"
)

// AnalyzeFile reads and analyzes the file at path. It returns nil if the
// file declares nothing to export.
func AnalyzeFile(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Analyze(name, path, string(src))
}

// Analyze analyzes the source of one file. It returns nil if src
// declares nothing to export.
func Analyze(name, path, src string) (*ir.Module, error) {
	mod, err := pysyntax.Parse(src)
	if err != nil {
		return nil, syntaxError(path, err)
	}

	res := &ir.Module{Name: name, Path: path}
	for _, st := range mod.Body {
		switch st.Kind {
		case pysyntax.StmtFunctionDef:
			if findMarker(st.Decorators, MarkerModuleFunction) == nil {
				continue
			}
			fn, err := extractFunction(path, st)
			if err != nil {
				return nil, err
			}
			res.Functions = append(res.Functions, fn)
		case pysyntax.StmtClassDef:
			dec := findMarker(st.Decorators, MarkerHostClass)
			if dec == nil {
				continue
			}
			host, err := extractHostClass(path, st, dec)
			if err != nil {
				return nil, err
			}
			if host != nil && res.Host == nil {
				res.Host = host
			}
		}
	}
	if err := CheckCompiles(path, src); err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, nil
	}
	return res, nil
}

// markerName returns the trailing identifier of a decorator in bare
// (mod_fn), attribute (binmod.mod_fn) or call (mod_fn(...)) form.
func markerName(dec *pysyntax.Expr) string {
	if dec.Kind == pysyntax.ExprCall {
		dec = dec.X
	}
	switch dec.Kind {
	case pysyntax.ExprName, pysyntax.ExprAttribute:
		return dec.Name
	default:
		return ""
	}
}

func findMarker(decorators []*pysyntax.Expr, name string) *pysyntax.Expr {
	for _, d := range decorators {
		if markerName(d) == name {
			return d
		}
	}
	return nil
}

// namespaceArg returns the namespace argument of a host_fns decorator,
// given either as keyword or as first positional argument.
func namespaceArg(dec *pysyntax.Expr) (string, bool) {
	if dec.Kind != pysyntax.ExprCall {
		return "", false
	}
	var arg *pysyntax.Expr
	for _, kw := range dec.Keywords {
		if kw.Name == "namespace" {
			arg = kw.Value
			break
		}
	}
	if arg == nil && len(dec.Elts) > 0 && dec.Elts[0].Kind != pysyntax.ExprStarred {
		arg = dec.Elts[0]
	}
	if arg == nil || arg.Kind != pysyntax.ExprConstant || arg.Const != pysyntax.ConstString {
		return "", false
	}
	return arg.Value, true
}

func extractHostClass(path string, class *pysyntax.Stmt, dec *pysyntax.Expr) (*ir.HostFunctions, error) {
	ns, ok := namespaceArg(dec)
	if !ok {
		return nil, &FunctionError{Path: path, Line: class.Pos.Line, Name: class.Name, Err: ErrMissingNamespace}
	}
	host := &ir.HostFunctions{Namespace: ns}
	for _, st := range class.Body {
		if st.Kind != pysyntax.StmtFunctionDef || findMarker(st.Decorators, MarkerHostFunction) == nil {
			continue
		}
		fn, err := extractFunction(path, st)
		if err != nil {
			return nil, err
		}
		host.Functions = append(host.Functions, fn)
	}
	if len(host.Functions) == 0 {
		return nil, nil
	}
	return host, nil
}

func extractFunction(path string, def *pysyntax.Stmt) (ir.Function, error) {
	fail := func(err error) (ir.Function, error) {
		return ir.Function{}, &FunctionError{Path: path, Line: def.Pos.Line, Name: def.Name, Err: err}
	}
	if def.Async {
		return fail(fmt.Errorf("%w: async functions cannot be exported", ErrUnsupportedFunction))
	}

	fn := ir.Function{Name: def.Name}
	if doc, ok := def.Docstring(); ok {
		fn.Doc = doc
	}
	for _, p := range def.Params {
		var kind ir.ParamKind
		switch p.Kind {
		case pysyntax.ParamPositionalOrKeyword:
			kind = ir.PositionalOrKeyword
		case pysyntax.ParamPositionalOnly:
			kind = ir.PositionalOnly
		case pysyntax.ParamKeywordOnly:
			kind = ir.KeywordOnly
		case pysyntax.ParamVarArgs, pysyntax.ParamVarKwargs:
			return fail(fmt.Errorf("%w: variadic parameter %q", ErrUnsupportedFunction, p.Name))
		default:
			panic(fmt.Sprintf("programmer error: unhandled parameter kind %v", p.Kind))
		}
		if p.Annotation == nil {
			return fail(fmt.Errorf("parameter %q: %w", p.Name, ErrMissingAnnotation))
		}
		t, err := ResolveAnnotation(p.Annotation)
		if err != nil {
			return fail(fmt.Errorf("parameter %q: %w", p.Name, err))
		}
		fn.Params = append(fn.Params, ir.Parameter{Name: p.Name, Type: t, Kind: kind})
	}
	if def.Returns == nil {
		return fail(fmt.Errorf("return: %w", ErrMissingAnnotation))
	}
	ret, err := ResolveAnnotation(def.Returns)
	if err != nil {
		return fail(fmt.Errorf("return: %w", err))
	}
	fn.Return = ret
	return fn, nil
}
