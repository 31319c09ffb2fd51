// Package project assembles the IR of a whole Python project.
package project

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"dario.cat/mergo"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/py2gomod/py2gomod/analyzer"
	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/layout"
	"github.com/py2gomod/py2gomod/metadata"
	"github.com/py2gomod/py2gomod/walker"
)

var ErrNotDirectory = errors.New("not a directory")

type cacheKey struct {
	path string
	sum  [sha256.Size]byte
}

// Cache holds analysis results keyed by file path and content hash.
// It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[cacheKey, *ir.Module]
}

func NewCache(size int) (*Cache, error) {
	c, err := lru.New[cacheKey, *ir.Module](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

// Parser assembles project contexts. The zero value is ready to use.
type Parser struct {
	// Hints take priority over the manifest's tool overrides.
	Hints layout.Hints
	// Concurrency bounds the number of files analyzed at once.
	// Defaults to runtime.GOMAXPROCS(0).
	Concurrency int
	// Walker discovers files. Defaults to walker.New().
	Walker *walker.Walker
	// Cache is optional.
	Cache  *Cache
	Logger *zap.Logger
}

func (p *Parser) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// ParseProject discovers, resolves and analyzes the project in
// projectDir. It either returns a complete context or an error, never a
// partial result.
func (p *Parser) ParseProject(ctx context.Context, projectDir string) (*ir.ProjectContext, error) {
	log := p.logger()

	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(projectDir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%v: %w", projectDir, ErrNotDirectory)
	}

	w := p.Walker
	if w == nil {
		if w, err = walker.New(); err != nil {
			return nil, err
		}
	}
	files, err := w.Walk(projectDir)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	log.Debug("discovered files", zap.String("dir", projectDir), zap.Int("count", len(files)))

	md, err := metadata.Parse(projectDir)
	if err != nil {
		return nil, err
	}

	hints := p.Hints
	if err := mergo.Merge(&hints, layout.Hints{
		Env:        md.Overrides.Env,
		ModuleRoot: md.Overrides.ModuleRoot,
		Module:     md.Overrides.Module,
	}); err != nil {
		return nil, err
	}
	l, err := layout.Resolve(projectDir, files, hints)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved layout",
		zap.String("import_root", l.ImportRoot),
		zap.String("env_dir", l.EnvDir),
		zap.String("lib_dir", l.LibDir),
		zap.String("module_root", l.ModuleRoot),
		zap.String("module", l.ModuleName))

	var sources walker.Files
	for _, f := range files.Under(l.ModuleRoot).WithExt(".py") {
		if len(walker.Files{f}.Under(l.EnvDir)) == 0 {
			sources = append(sources, f)
		}
	}

	modules, err := p.analyze(ctx, sources)
	if err != nil {
		return nil, err
	}
	return &ir.ProjectContext{
		ProjectDir: projectDir,
		EnvDir:     l.EnvDir,
		LibDir:     l.LibDir,
		ImportRoot: l.ImportRoot,
		ModuleRoot: l.ModuleRoot,
		ModuleName: l.ModuleName,
		Metadata:   md,
		Modules:    modules,
	}, nil
}

// analyze extracts all files concurrently. The first error cancels the
// remaining work.
func (p *Parser) analyze(ctx context.Context, files walker.Files) ([]*ir.Module, error) {
	limit := p.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*ir.Module, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mod, err := p.analyzeFile(f)
			if err != nil {
				return err
			}
			results[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var modules []*ir.Module
	for _, m := range results {
		if m != nil {
			modules = append(modules, m)
		}
	}
	slices.SortFunc(modules, func(a, b *ir.Module) int {
		return strings.Compare(a.Path, b.Path)
	})
	return modules, nil
}

func (p *Parser) analyzeFile(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var key cacheKey
	if p.Cache != nil {
		key = cacheKey{path: path, sum: sha256.Sum256(src)}
		if mod, ok := p.Cache.lru.Get(key); ok {
			p.logger().Debug("analysis cache hit", zap.String("file", path))
			return mod, nil
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mod, err := analyzer.Analyze(name, path, string(src))
	if err != nil {
		return nil, err
	}
	if mod != nil {
		p.logger().Debug("analyzed module",
			zap.String("file", path),
			zap.Int("functions", len(mod.Functions)),
			zap.Bool("host", mod.Host != nil))
	}
	if p.Cache != nil {
		p.Cache.lru.Add(key, mod)
	}
	return mod, nil
}

// ParseProject parses projectDir with default settings.
func ParseProject(ctx context.Context, projectDir string) (*ir.ProjectContext, error) {
	return (&Parser{}).ParseProject(ctx, projectDir)
}
