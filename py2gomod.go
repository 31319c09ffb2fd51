package py2gomod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/py2gomod/py2gomod/compiler"
	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/layout"
	"github.com/py2gomod/py2gomod/module"
	"github.com/py2gomod/py2gomod/project"
	"github.com/py2gomod/py2gomod/render"
	"github.com/py2gomod/py2gomod/shim"
	"github.com/py2gomod/py2gomod/ui"
)

// DefaultOutDir is the output directory relative to the project dir.
const DefaultOutDir = "artifacts"

type TranspileOptions struct {
	ProjectDir string
	// OutDir defaults to <ProjectDir>/artifacts.
	OutDir string
	// Stdout prints the generated files to Out instead of writing them.
	Stdout bool
	// Out defaults to os.Stdout.
	Out io.Writer

	Hints layout.Hints
	// Package overrides the Go package name.
	Package string
	// ModulePath overrides the Go module path.
	ModulePath string
	// Concurrency bounds parallel file analysis.
	Concurrency int
	// Year of the generated copyright line. Defaults to the current year.
	Year int
}

type BuildOptions struct {
	TranspileOptions
	Release bool
	Target  compiler.Target
	// GoBin defaults to "go".
	GoBin string
	// Sink receives the build output.
	Sink compiler.OutputSink
}

// Result describes an emitted module.
type Result struct {
	Context *ir.ProjectContext
	Emitted render.Emitted
	Files   []render.File
	// Dir is where the files were written. Empty for stdout listings.
	Dir string
}

func (o *TranspileOptions) outDir(projectDir string) string {
	if o.OutDir != "" {
		return o.OutDir
	}
	return filepath.Join(projectDir, DefaultOutDir)
}

// emitted derives the emitted module identity from the options and the
// project.
func (o *TranspileOptions) emitted(pc *ir.ProjectContext) (render.Emitted, error) {
	var e render.Emitted
	var err error
	if o.ModulePath != "" {
		m := module.New(o.ModulePath, "")
		if err := m.Check(); err != nil {
			return e, fmt.Errorf("module path: %w", err)
		}
		e.ModulePath = o.ModulePath
	} else if e.ModulePath, err = module.PathFor(pc.Metadata.Name, pc.ModuleName); err != nil {
		return e, err
	}
	e.Package = o.Package
	if e.Package == "" {
		e.Package = module.PackageName(pc.ModuleName)
	}
	if err := module.CheckPackageName(e.Package); err != nil {
		return e, err
	}
	return e, nil
}

// render parses the project and renders all files of the emitted
// module.
func (o *TranspileOptions) render(ctx context.Context) (Result, error) {
	log := Logger()
	p := &project.Parser{
		Hints:       o.Hints,
		Concurrency: o.Concurrency,
		Logger:      log.Named("project"),
	}
	pc, err := p.ParseProject(ctx, o.ProjectDir)
	if err != nil {
		return Result{}, err
	}
	e, err := o.emitted(pc)
	if err != nil {
		return Result{}, err
	}
	year := o.Year
	if year == 0 {
		year = time.Now().Year()
	}
	files, err := render.Render(render.Units(pc, e, year, shim.Options{Logger: log.Named("shim")})...)
	if err != nil {
		return Result{}, err
	}
	log.Info("rendered module",
		zap.String("module", e.ModulePath),
		zap.String("package", e.Package),
		zap.Int("files", len(files)),
		zap.Uint64("bytes", render.Size(files)))
	return Result{Context: pc, Emitted: e, Files: files}, nil
}

// listed reports whether a file is shown in stdout listings. Copied
// resources are only summarized.
func listed(f render.File) bool {
	for _, prefix := range []string{"pysrc/", "pylib/", "internal/"} {
		if strings.HasPrefix(f.Path, prefix) {
			return false
		}
	}
	return true
}

// Transpile turns the Python project into a Go module, written to
// OutDir or listed on Out.
func Transpile(ctx context.Context, opts TranspileOptions) (Result, error) {
	res, err := opts.render(ctx)
	if err != nil {
		return Result{}, err
	}
	if opts.Stdout {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		var hidden []render.File
		for _, f := range res.Files {
			if listed(f) {
				ui.Listing(out, f.Path, f.Content)
				fmt.Fprintln(out)
			} else {
				hidden = append(hidden, f)
			}
		}
		fmt.Fprintf(out, "%d resource files (%v) not shown\n", len(hidden), ui.Size(render.Size(hidden)))
		return res, nil
	}

	res.Dir = opts.outDir(res.Context.ProjectDir)
	if err := render.Write(res.Dir, res.Files); err != nil {
		return Result{}, fmt.Errorf("write output: %w", err)
	}
	Logger().Info("wrote module", zap.String("dir", res.Dir))
	return res, nil
}

// Build transpiles the project into a temporary dir and compiles it. On
// success the module is written to OutDir.
func Build(ctx context.Context, opts BuildOptions) (Result, error) {
	c := &compiler.GoCompiler{
		GoBin:   opts.GoBin,
		Release: opts.Release,
		Target:  opts.Target,
		Sink:    opts.Sink,
		Logger:  Logger().Named("compiler"),
	}
	if !c.IsInstalled() {
		return Result{}, compiler.ErrGoNotInstalled
	}

	res, err := opts.render(ctx)
	if err != nil {
		return Result{}, err
	}
	tmp, err := os.MkdirTemp("", "py2gomod-build-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tmp)
	if err := render.Write(tmp, res.Files); err != nil {
		return Result{}, fmt.Errorf("write build tree: %w", err)
	}
	if _, err := c.Compile(ctx, tmp); err != nil {
		return Result{}, err
	}

	res.Dir = opts.outDir(res.Context.ProjectDir)
	if err := render.Write(res.Dir, res.Files); err != nil {
		return Result{}, fmt.Errorf("write output: %w", err)
	}
	return res, nil
}

// ErrorString returns the full form of err if it provides one.
func ErrorString(err error) string {
	var s fmt.Stringer
	if errors.As(err, &s) {
		return strings.TrimSuffix(s.String(), "\n")
	}
	return err.Error()
}
