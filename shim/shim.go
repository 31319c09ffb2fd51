// Package shim generates the Go compilation unit that embeds the Python
// project and exposes its exported functions as typed Go functions.
package shim

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	"github.com/py2gomod/py2gomod/codegen"
	"github.com/py2gomod/py2gomod/converter"
	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/module"
	"github.com/py2gomod/py2gomod/textutils"
)

// FileName is the name of the generated compilation unit.
const FileName = "binmod.go"

var ErrNameCollision = errors.New("name collision")

// Reserved are the exported identifiers declared by the runtime part of
// the generated code.
var Reserved = []string{"Initialize", "Close", "BindHost", "HostFunctions"}

//go:embed templates
var templates embed.FS

var runtimeTmpl = template.Must(template.ParseFS(templates, "templates/runtime.go.tmpl"))

type Options struct {
	// Package is the Go package name. Defaults to
	// module.PackageName of the Python module name.
	Package string
	// BridgeImport is the import path of the vendored bridge package.
	BridgeImport string
	Logger       *zap.Logger
}

type runtimeData struct {
	Package      string
	BridgeImport string
	ModuleName   string
	Host         bool
	Namespace    string
}

// function is a module function prepared for emission.
type function struct {
	ir.Function
	GoName     string
	ImportPath string
	Params     []param
	ReturnType string // empty for None
	ReturnConv string
}

type param struct {
	ir.Parameter
	GoName string
	GoType string
	Conv   string
}

type generator struct {
	pc    *ir.ProjectContext
	opts  Options
	cs    *converter.ConverterSet
	names map[string]string // Go name to Python origin
}

// Generate returns the formatted source of the compilation unit for pc.
func Generate(pc *ir.ProjectContext, opts Options) (string, error) {
	if opts.Package == "" {
		opts.Package = module.PackageName(pc.ModuleName)
	}
	if err := module.CheckPackageName(opts.Package); err != nil {
		return "", err
	}
	if opts.BridgeImport == "" {
		return "", errors.New("shim: missing bridge import path")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	g := &generator{
		pc:    pc,
		opts:  opts,
		cs:    converter.NewConverterSet(),
		names: map[string]string{},
	}
	for _, name := range Reserved {
		g.names[name] = "generated code"
	}

	hf, conflicts := pc.HostFunctions()
	for _, ns := range conflicts {
		log.Warn("host class namespace differs, registering its functions under the first one",
			zap.String("namespace", ns), zap.String("using", hf.Namespace))
	}

	funcs, err := g.moduleFunctions()
	if err != nil {
		return "", err
	}
	hostFuncs, err := g.hostFunctions(hf)
	if err != nil {
		return "", err
	}
	// Tuple type names are only known once all types are collected.
	for _, f := range funcs {
		if err := g.claim(f.GoName, f.ImportPath+"."+f.Name); err != nil {
			return "", err
		}
	}

	codecs, _, err := g.cs.Code()
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	if err := runtimeTmpl.Execute(&b, runtimeData{
		Package:      opts.Package,
		BridgeImport: opts.BridgeImport,
		ModuleName:   pc.ModuleName,
		Host:         len(hostFuncs) > 0,
		Namespace:    hf.Namespace,
	}); err != nil {
		return "", fmt.Errorf("execute runtime template: %w", err)
	}

	var cb codegen.CodeBuilder
	cb.Write(b.String())
	cb.Linef("")
	cb.Append(string(codecs))
	if len(hostFuncs) > 0 {
		writeHostBridge(&cb, hf.Namespace, hostFuncs)
	}
	for _, fn := range funcs {
		cb.Linef("")
		writeShim(&cb, fn)
	}

	code, err := codegen.PruneImports(FileName, []byte(cb.String()))
	if err != nil {
		return "", fmt.Errorf("format generated code: %w", err)
	}
	log.Debug("generated shims",
		zap.Int("functions", len(funcs)),
		zap.Int("host_functions", len(hostFuncs)))
	return string(code), nil
}

// claim reserves an exported Go name for the Python function origin.
func (g *generator) claim(goName, origin string) error {
	if prev, ok := g.names[goName]; ok {
		return fmt.Errorf("%w: %v and %v both map to Go name %v", ErrNameCollision, prev, origin, goName)
	}
	g.names[goName] = origin
	return nil
}

func (g *generator) prepare(fn ir.Function, origin string) (function, error) {
	res := function{Function: fn, GoName: strcase.ToCamel(fn.Name)}
	if !token.IsExported(res.GoName) {
		return function{}, fmt.Errorf("%v: cannot derive an exported Go name", origin)
	}
	for _, t := range converter.TupleTypes(fn.Return) {
		g.names[t] = "tuple type " + t
	}

	locals := map[string]bool{}
	for i, p := range fn.Params {
		for _, t := range converter.TupleTypes(p.Type) {
			g.names[t] = "tuple type " + t
		}
		res.Params = append(res.Params, param{
			Parameter: p,
			GoName:    localName(p.Name, i, locals),
			GoType:    converter.GoType(p.Type),
			Conv:      g.cs.Add(p.Type, origin+"."+p.Name),
		})
	}
	if fn.Return.Kind != ir.KindNone {
		res.ReturnType = converter.GoType(fn.Return)
		res.ReturnConv = g.cs.Add(fn.Return, origin+" return")
	}
	return res, nil
}

func (g *generator) moduleFunctions() ([]function, error) {
	var res []function
	for _, m := range g.pc.Modules {
		importPath, err := g.pc.ImportPath(m)
		if err != nil {
			return nil, err
		}
		for _, fn := range m.Functions {
			origin := importPath + "." + fn.Name
			f, err := g.prepare(fn, origin)
			if err != nil {
				return nil, err
			}
			f.ImportPath = importPath
			res = append(res, f)
		}
	}
	return res, nil
}

func (g *generator) hostFunctions(hf ir.HostFunctions) ([]function, error) {
	var res []function
	seen := map[string]string{}
	for _, fn := range hf.Functions {
		origin := hf.Namespace + "." + fn.Name
		f, err := g.prepare(fn, origin)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[f.GoName]; ok {
			return nil, fmt.Errorf("%w: host functions %v and %v both map to Go name %v", ErrNameCollision, prev, origin, f.GoName)
		}
		seen[f.GoName] = origin
		res = append(res, f)
	}
	return res, nil
}

// shimLocals are identifiers used inside generated function bodies.
var shimLocals = map[string]bool{
	"ctx": true, "res": true, "err": true, "it": true, "fn": true,
	"args": true, "kwargs": true, "out": true, "self": true, "impl": true,
	"pool": true, "py": true, "bridge": true, "context": true,
	"encodeArg": true, "decodeResult": true, "translateError": true,
	"raise": true, "boundHost": true, "host": true,
}

// localName returns a Go parameter name for a Python parameter name,
// unique within taken.
func localName(pyName string, index int, taken map[string]bool) string {
	name := strcase.ToLowerCamel(pyName)
	if token.IsKeyword(name) || shimLocals[name] || types.Universe.Lookup(name) != nil {
		name += "_"
	}
	if !token.IsIdentifier(name) || name == "_" {
		name = fmt.Sprintf("arg%d", index)
	}
	for taken[name] {
		name = fmt.Sprintf("%s%d", name, index)
	}
	taken[name] = true
	return name
}

func docComment(cb *codegen.CodeBuilder, fn function, fallback string) {
	if doc := textutils.Dedent(fn.Doc); doc != "" {
		cb.Comment(doc)
	} else {
		cb.Comment(fallback)
	}
}

func signature(fn function) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.GoName+" "+p.GoType)
	}
	return strings.Join(params, ", ")
}

func resultList(fn function) string {
	if fn.ReturnType == "" {
		return "error"
	}
	return "(" + fn.ReturnType + ", error)"
}

func writeShim(cb *codegen.CodeBuilder, fn function) {
	docComment(cb, fn, fmt.Sprintf("%v calls the Python function %v.%v.", fn.GoName, fn.ImportPath, fn.Name))
	params := signature(fn)
	if params != "" {
		params = ", " + params
	}
	cb.Block(fmt.Sprintf("func %v(ctx context.Context%v) %v", fn.GoName, params, resultList(fn)), func() {
		if fn.ReturnType != "" {
			cb.Linef("var res %v", fn.ReturnType)
		}
		cb.BlockEnd("err := pool.Do(ctx, func(it *interpreter) error", "})", func() {
			var positional, keyword []param
			for _, p := range fn.Params {
				if p.Kind == ir.KeywordOnly {
					keyword = append(keyword, p)
				} else {
					positional = append(positional, p)
				}
			}
			if len(fn.Params) > 0 {
				cb.Linef("var err error")
			}
			args, kwargs := "nil", "nil"
			if len(positional) > 0 {
				args = "args"
				cb.Linef("args := make(py.Tuple, %d)", len(positional))
				for i, p := range positional {
					cb.Block(fmt.Sprintf("if args[%d], err = encodeArg(%v, %v); err != nil", i, p.Conv, p.GoName), func() {
						cb.Linef("return err")
					})
				}
			}
			if len(keyword) > 0 {
				kwargs = "kwargs"
				cb.Linef("kwargs := py.NewStringDict()")
				for _, p := range keyword {
					cb.Block(fmt.Sprintf("if kwargs[%q], err = encodeArg(%v, %v); err != nil", p.Name, p.Conv, p.GoName), func() {
						cb.Linef("return err")
					})
				}
			}

			call := fmt.Sprintf("it.call(%q, %q, %v, %v)", fn.ImportPath, fn.Name, args, kwargs)
			if fn.ReturnType == "" {
				if len(fn.Params) > 0 {
					cb.Linef("_, err = %v", call)
				} else {
					cb.Linef("_, err := %v", call)
				}
				cb.Linef("return err")
				return
			}
			cb.Linef("out, err := %v", call)
			cb.Block("if err != nil", func() { cb.Linef("return err") })
			cb.Linef("res, err = decodeResult(%v, out)", fn.ReturnConv)
			cb.Linef("return err")
		})
		if fn.ReturnType != "" {
			cb.Linef("return res, err")
		} else {
			cb.Linef("return err")
		}
	})
}

func writeHostBridge(cb *codegen.CodeBuilder, namespace string, funcs []function) {
	cb.Linef("")
	cb.Comment("HostFunctions is implemented by the embedding program and bound\nwith BindHost. Python code calls its methods through the hostfns\nmodule.")
	cb.Block("type HostFunctions interface", func() {
		for i, fn := range funcs {
			if i > 0 {
				cb.Linef("")
			}
			docComment(cb, fn, fmt.Sprintf("%v implements the host function %v.", fn.GoName, fn.Name))
			cb.Linef("%v(%v) %v", fn.GoName, signature(fn), resultList(fn))
		}
	})

	cb.Linef("")
	cb.Block("func init()", func() {
		cb.Linef("py.RegisterModule(&py.ModuleImpl{")
		cb.Indent++
		cb.Linef("Info: py.ModuleInfo{Name: hostModuleName, Doc: %q},", "Host functions of namespace "+namespace+".")
		cb.Linef("Methods: []*py.Method{")
		cb.Indent++
		for _, fn := range funcs {
			cb.Linef("py.MustNewMethod(%q, host_%v, 0, %q),", fn.Name, fn.Name, textutils.Dedent(fn.Doc))
		}
		cb.Indent--
		cb.Linef("},")
		cb.Indent--
		cb.Linef("})")
	})

	for _, fn := range funcs {
		cb.Linef("")
		cb.Block(fmt.Sprintf("func host_%v(self py.Object, args py.Tuple) (py.Object, error)", fn.Name), func() {
			cb.Block(fmt.Sprintf("if len(args) != %d", len(fn.Params)), func() {
				cb.Linef("return nil, py.ExceptionNewf(py.TypeError, %q, len(args))",
					fmt.Sprintf("%v() takes %d positional arguments but %%d were given", fn.Name, len(fn.Params)))
			})
			cb.Linef("impl, err := boundHost()")
			cb.Block("if err != nil", func() { cb.Linef("return nil, raise(err)") })
			var names []string
			for i, p := range fn.Params {
				names = append(names, p.GoName)
				cb.Linef("%v, err := decodeResult(%v, args[%d])", p.GoName, p.Conv, i)
				cb.Block("if err != nil", func() { cb.Linef("return nil, raise(err)") })
			}
			call := fmt.Sprintf("impl.%v(%v)", fn.GoName, strings.Join(names, ", "))
			if fn.ReturnType == "" {
				cb.Block(fmt.Sprintf("if err := %v; err != nil", call), func() { cb.Linef("return nil, raise(err)") })
				cb.Linef("return py.None, nil")
				return
			}
			cb.Linef("res, err := %v", call)
			cb.Block("if err != nil", func() { cb.Linef("return nil, raise(err)") })
			cb.Linef("out, err := encodeArg(%v, res)", fn.ReturnConv)
			cb.Block("if err != nil", func() { cb.Linef("return nil, raise(err)") })
			cb.Linef("return out, nil")
		})
	}
}
