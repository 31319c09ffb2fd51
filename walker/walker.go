// Package walker discovers the candidate files of a project.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnore is matched against the final path component of every
// visited entry. Matching directories are not descended into.
var DefaultIgnore = []string{
	// Version control
	".git", ".hg", ".svn",
	// Virtual environments
	".venv", "venv",
	// Caches
	"__pycache__", ".mypy_cache", ".ruff_cache", ".pytest_cache", "node_modules",
	// Build output
	"dist", "build", "artifacts", "*.egg-info",
	// Compiled artifacts
	"*.pyc", "*.pyo", "*.pyd", "*.so", "*.dll", "*.dylib",
}

// Files is a sorted list of file paths.
type Files []string

// Under returns the files located below dir.
func (files Files) Under(dir string) Files {
	dir = filepath.Clean(dir)
	var res Files
	for _, f := range files {
		if rel, err := filepath.Rel(dir, f); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			res = append(res, f)
		}
	}
	return res
}

// WithExt returns the files with the given extension (".py").
func (files Files) WithExt(ext string) Files {
	var res Files
	for _, f := range files {
		if filepath.Ext(f) == ext {
			res = append(res, f)
		}
	}
	return res
}

// Walker walks a directory tree, skipping entries that match its ignore
// patterns. The zero value ignores nothing.
type Walker struct {
	Ignore []string
}

// New returns a Walker using DefaultIgnore plus extra patterns.
func New(extra ...string) (*Walker, error) {
	for _, p := range extra {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Walker{Ignore: append(slices.Clone(DefaultIgnore), extra...)}, nil
}

// Ignored reports whether an entry named name is excluded.
func (w *Walker) Ignored(name string) bool {
	for _, p := range w.Ignore {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Walk returns all regular files under root that are not excluded.
//
// Symbolic links to directories are not followed, so the walk always
// terminates. Symbolic links to regular files are included. An
// unreadable directory aborts the walk.
func (w *Walker) Walk(root string) (Files, error) {
	var files Files
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && w.Ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, path)
		case d.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(path)
			if err == nil && info.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Walk walks root with the default ignore policy.
func Walk(root string) (Files, error) {
	w, err := New()
	if err != nil {
		return nil, err
	}
	return w.Walk(root)
}
