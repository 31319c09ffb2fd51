package render

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"
	"golang.org/x/mod/modfile"

	"github.com/py2gomod/py2gomod/bridge"
	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/module"
	"github.com/py2gomod/py2gomod/pysyntax"
	"github.com/py2gomod/py2gomod/shim"
	"github.com/py2gomod/py2gomod/textutils"
	"github.com/py2gomod/py2gomod/walker"
)

//go:embed templates
var templateFS embed.FS

//go:embed stubs/typing.py
var typingStub []byte

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join":         strings.Join,
	"commentLines": textutils.CommentLines,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Emitted is the identity of the emitted Go module.
type Emitted struct {
	ModulePath string
	Package    string
}

// BridgeImport is the import path of the vendored bridge package.
func (e Emitted) BridgeImport() string {
	return e.ModulePath + "/internal/bridge"
}

type templateFunction struct {
	GoName string
	Python string
}

type templateData struct {
	Emitted
	ModuleName    string
	Metadata      ir.ProjectMetadata
	Functions     []templateFunction
	HostNamespace string
	Year          int
}

// TemplateUnit renders README.md, doc.go and, if the project declares a
// license, LICENSE.
type TemplateUnit struct {
	Context *ir.ProjectContext
	Emitted Emitted
	// Year of the copyright line.
	Year int
}

func (u TemplateUnit) Render() ([]File, error) {
	data := templateData{
		Emitted:    u.Emitted,
		ModuleName: u.Context.ModuleName,
		Metadata:   u.Context.Metadata,
		Year:       u.Year,
	}
	for _, m := range u.Context.Modules {
		importPath, err := u.Context.ImportPath(m)
		if err != nil {
			return nil, err
		}
		for _, fn := range m.Functions {
			data.Functions = append(data.Functions, templateFunction{
				GoName: strcase.ToCamel(fn.Name),
				Python: importPath + "." + fn.Name,
			})
		}
		if m.Host != nil && len(m.Host.Functions) > 0 && data.HostNamespace == "" {
			data.HostNamespace = m.Host.Namespace
		}
	}

	names := []string{"README.md", "doc.go"}
	if u.Context.Metadata.License != "" {
		names = append(names, "LICENSE")
	}
	var files []File
	for _, name := range names {
		var b bytes.Buffer
		if err := templates.ExecuteTemplate(&b, name+".tmpl", data); err != nil {
			return nil, fmt.Errorf("render %v: %w", name, err)
		}
		files = append(files, File{Path: name, Content: b.Bytes()})
	}
	return files, nil
}

// GoModUnit renders go.mod.
type GoModUnit struct {
	ModulePath string
}

func (u GoModUnit) Render() ([]File, error) {
	m := module.New(u.ModulePath, "")
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("module path: %w", err)
	}
	f := &modfile.File{}
	if err := f.AddModuleStmt(u.ModulePath); err != nil {
		return nil, err
	}
	if err := f.AddGoStmt(module.GoVersion); err != nil {
		return nil, err
	}
	if err := f.AddRequire(module.Gpython.Path, module.Gpython.Version); err != nil {
		return nil, err
	}
	f.Cleanup()
	data, err := f.Format()
	if err != nil {
		return nil, err
	}
	return []File{{Path: "go.mod", Content: data}}, nil
}

// CodegenUnit renders the generated compilation unit.
type CodegenUnit struct {
	Context *ir.ProjectContext
	Options shim.Options
}

func (u CodegenUnit) Render() ([]File, error) {
	code, err := shim.Generate(u.Context, u.Options)
	if err != nil {
		return nil, err
	}
	return []File{{Path: shim.FileName, Content: []byte(code)}}, nil
}

// ResourceUnit copies the Python sources to pysrc/ and the library dir
// to pylib/. Annotations are stripped from the copies, since the
// embedded interpreter does not evaluate them the way Python 3.10+ does.
// A typing module is added unless the library dir has one.
//
// An empty source tree gets a .keep file, so the embed patterns of the
// generated code always match.
type ResourceUnit struct {
	Context *ir.ProjectContext
	// Walker filters the library dir. Defaults to walker.New().
	Walker *walker.Walker
}

func (u ResourceUnit) Render() ([]File, error) {
	w := u.Walker
	if w == nil {
		var err error
		if w, err = walker.New(); err != nil {
			return nil, err
		}
	}
	pc := u.Context

	srcs, err := w.Walk(pc.ModuleRoot)
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}
	var files []File
	for _, f := range srcs.WithExt(".py") {
		if pc.EnvDir != "" && len(walker.Files{f}.Under(pc.EnvDir)) > 0 {
			continue
		}
		file, err := readFile(pc.ImportRoot, f, "pysrc")
		if err != nil {
			return nil, err
		}
		stripped, err := pysyntax.StripAnnotations(string(file.Content))
		if err != nil {
			return nil, fmt.Errorf("%v: %w", f, err)
		}
		file.Content = []byte(stripped)
		files = append(files, file)
	}
	if len(files) == 0 {
		files = append(files, File{Path: "pysrc/.keep"})
	}

	hasTyping := false
	if pc.LibDir != "" {
		libs, err := w.Walk(pc.LibDir)
		if err != nil {
			return nil, fmt.Errorf("collect library files: %w", err)
		}
		for _, f := range libs {
			file, err := readFile(pc.LibDir, f, "pylib")
			if err != nil {
				return nil, err
			}
			// Library code the interpreter cannot tokenize is kept as is;
			// it fails on import only if it is imported.
			if path.Ext(file.Path) == ".py" {
				if stripped, err := pysyntax.StripAnnotations(string(file.Content)); err == nil {
					file.Content = []byte(stripped)
				}
			}
			hasTyping = hasTyping || file.Path == "pylib/typing.py"
			files = append(files, file)
		}
	}
	if !hasTyping {
		files = append(files, File{Path: "pylib/typing.py", Content: typingStub})
	}
	return files, nil
}

func readFile(root, file, prefix string) (File, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return File{}, err
	}
	return File{Path: path.Join(prefix, filepath.ToSlash(rel)), Content: data}, nil
}

// BridgeUnit vendors the bridge sources into internal/bridge.
type BridgeUnit struct{}

func (BridgeUnit) Render() ([]File, error) {
	var files []File
	err := fs.WalkDir(bridge.Sources(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(bridge.Sources(), p)
		if err != nil {
			return err
		}
		files = append(files, File{Path: path.Join("internal/bridge", p), Content: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vendor bridge: %w", err)
	}
	return files, nil
}

// Units returns all units of an emitted module in output order.
func Units(pc *ir.ProjectContext, e Emitted, year int, opts shim.Options) []Unit {
	opts.Package = e.Package
	opts.BridgeImport = e.BridgeImport()
	return []Unit{
		GoModUnit{ModulePath: e.ModulePath},
		TemplateUnit{Context: pc, Emitted: e, Year: year},
		CodegenUnit{Context: pc, Options: opts},
		BridgeUnit{},
		ResourceUnit{Context: pc},
	}
}
