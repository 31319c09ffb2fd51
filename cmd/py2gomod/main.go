package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"go.uber.org/zap"

	"github.com/py2gomod/py2gomod"
	"github.com/py2gomod/py2gomod/compiler"
	"github.com/py2gomod/py2gomod/layout"
	"github.com/py2gomod/py2gomod/render"
	"github.com/py2gomod/py2gomod/ui"
)

const usage = `usage: py2gomod <transpile|build> [options] [project_dir]

commands:
  transpile  Generate a Go module from the Python project
  build      Generate the Go module and compile it with the Go toolchain

options:
`

type options struct {
	outDir     string
	stdout     bool
	release    bool
	target     string
	module     string
	moduleRoot string
	venv       string
	pkg        string
	modulePath string
	jobs       int
	verbose    bool
}

func newFlagSet(cmd string, out io.Writer, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("py2gomod "+cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.outDir, "o", "", "output directory (default <project_dir>/artifacts)")
	fs.BoolVar(&o.stdout, "stdout", false, "print generated files instead of writing them (transpile only)")
	fs.BoolVar(&o.release, "release", false, "strip debug info and paths (build only)")
	fs.StringVar(&o.target, "target", "", "cross-compile for `os/arch` (build only)")
	fs.StringVar(&o.module, "module", "", "name of the top-level Python module")
	fs.StringVar(&o.moduleRoot, "module-root", "", "directory containing the top-level module")
	fs.StringVar(&o.venv, "venv", "", "virtual environment directory")
	fs.StringVar(&o.pkg, "package", "", "Go package name of the generated module")
	fs.StringVar(&o.modulePath, "module-path", "", "Go module path of the generated module")
	fs.IntVar(&o.jobs, "j", runtime.GOMAXPROCS(0), "number of files analyzed in parallel")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	return fs
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	p := &ui.Printer{Writer: stderr}

	if len(args) == 0 || (args[0] != "transpile" && args[0] != "build") {
		fmt.Fprint(stderr, usage)
		newFlagSet("", stderr, &options{}).PrintDefaults()
		return 1
	}
	cmd := args[0]
	var o options
	fs := newFlagSet(cmd, stderr, &o)
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 1
	}
	projectDir := "."
	if fs.NArg() == 1 {
		projectDir = fs.Arg(0)
	}

	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			p.Error("%v", err)
			return 1
		}
		defer logger.Sync() //nolint:errcheck
		py2gomod.SetLogger(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	topts := py2gomod.TranspileOptions{
		ProjectDir: projectDir,
		OutDir:     o.outDir,
		Hints: layout.Hints{
			Env:        o.venv,
			ModuleRoot: o.moduleRoot,
			Module:     o.module,
		},
		Package:     o.pkg,
		ModulePath:  o.modulePath,
		Concurrency: o.jobs,
	}

	var err error
	switch cmd {
	case "transpile":
		err = transpile(ctx, p, topts, o.stdout, stdout, stderr)
	case "build":
		err = build(ctx, p, topts, o, stderr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", py2gomod.ErrorString(err))
		return 1
	}
	return 0
}

func summary(p *ui.Printer, res py2gomod.Result) {
	fns := 0
	for _, m := range res.Context.Modules {
		fns += len(m.Functions)
	}
	p.Success("generated %v (package %v): %d modules, %d functions, %v",
		res.Emitted.ModulePath, res.Emitted.Package, len(res.Context.Modules), fns, ui.Size(render.Size(res.Files)))
	if res.Dir != "" {
		p.Info("output written to %v", res.Dir)
	}
}

func transpile(ctx context.Context, p *ui.Printer, opts py2gomod.TranspileOptions, toStdout bool, stdout, stderr io.Writer) error {
	opts.Stdout = toStdout
	opts.Out = stdout
	var res py2gomod.Result
	err := ui.Step(stderr, "Transpiling", ui.StepOptions{Plain: toStdout}, func() error {
		var err error
		res, err = py2gomod.Transpile(ctx, opts)
		return err
	})
	if err != nil {
		return err
	}
	summary(p, res)
	return nil
}

func build(ctx context.Context, p *ui.Printer, topts py2gomod.TranspileOptions, o options, stderr io.Writer) error {
	if o.stdout {
		return fmt.Errorf("-stdout is not supported by build")
	}
	target, err := compiler.ParseTarget(o.target)
	if err != nil {
		return err
	}
	panel := &ui.LogPanel{Title: "go build", Max: 12}
	var res py2gomod.Result
	err = ui.Step(stderr, fmt.Sprintf("Building for %v", target), ui.StepOptions{Detail: panel.View}, func() error {
		var err error
		res, err = py2gomod.Build(ctx, py2gomod.BuildOptions{
			TranspileOptions: topts,
			Release:          o.release,
			Target:           target,
			Sink:             panel,
		})
		return err
	})
	panel.Finish(stderr, err == nil)
	if err != nil {
		return err
	}
	summary(p, res)
	return nil
}
