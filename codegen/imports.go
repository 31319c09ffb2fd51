package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

type visitFn func(node ast.Node)

func (fn visitFn) Visit(node ast.Node) ast.Visitor {
	fn(node)
	return fn
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// DefaultImportName guesses the package name of an import path from its
// last element, skipping a major version suffix.
func DefaultImportName(importPath string) string {
	name := path.Base(importPath)
	if majorVersion.MatchString(name) {
		if dir := path.Dir(importPath); dir != "." {
			name = path.Base(dir)
		}
	}
	name, _, _ = strings.Cut(name, ".")
	return strings.ReplaceAll(name, "-", "_")
}

// PruneImports removes all named and unnamed imports the file does
// not reference and formats the result. Blank and dot imports are kept.
func PruneImports(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	type importSpec struct {
		name string
		path string
	}

	importsByName := map[string]importSpec{}
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, err
		}
		var name, resolvedName string
		if imp.Name == nil {
			resolvedName = DefaultImportName(p)
		} else {
			name = imp.Name.Name
			resolvedName = name
		}
		if name == "_" || name == "." {
			continue
		}
		if _, ok := importsByName[resolvedName]; ok {
			return nil, fmt.Errorf("duplicate import name %v", resolvedName)
		}
		importsByName[resolvedName] = importSpec{name, p}
	}

	used := map[string]bool{}
	ast.Walk(visitFn(func(n ast.Node) {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			used[id.Name] = true
		}
	}), f)

	for resolvedName, imp := range importsByName {
		if used[resolvedName] {
			continue
		}
		if !astutil.DeleteNamedImport(fset, f, imp.name, imp.path) {
			return nil, fmt.Errorf("unable to remove import %v", strconv.Quote(imp.path))
		}
	}

	var b bytes.Buffer
	if err := format.Node(&b, fset, f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
