// Package layout resolves where the environment, dependencies and the
// exported module of a project are located.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/py2gomod/py2gomod/walker"
)

var (
	ErrMissingEnvironment = errors.New("missing virtual environment")
	ErrMissingLibraryDir  = errors.New("missing site-packages directory")
	ErrMissingModule      = errors.New("missing module")
)

// EnvCandidates are the environment directory names tried in order.
var EnvCandidates = []string{"venv", ".venv", "env", ".env"}

// Error is a layout resolution failure. It unwraps to one of the
// ErrMissing* sentinels.
type Error struct {
	Err        error
	Searched   []string // paths that were tried
	Candidates []string // module candidates found, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, ": ambiguous candidates %v", strings.Join(e.Candidates, ", "))
	}
	if len(e.Searched) > 0 {
		fmt.Fprintf(&b, " (searched %v)", strings.Join(e.Searched, ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Hints are explicit overrides. Empty fields are resolved heuristically.
// Relative paths are relative to the project dir.
type Hints struct {
	Env        string
	ModuleRoot string // import root
	Module     string
}

type Layout struct {
	ImportRoot string
	EnvDir     string
	LibDir     string
	ModuleRoot string
	ModuleName string
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func absTo(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// Resolve determines the layout of the project in projectDir, given its
// discovered files.
func Resolve(projectDir string, files walker.Files, hints Hints) (Layout, error) {
	var l Layout

	switch src := filepath.Join(projectDir, "src"); {
	case hints.ModuleRoot != "":
		l.ImportRoot = absTo(projectDir, hints.ModuleRoot)
	case isDir(src):
		l.ImportRoot = src
	default:
		l.ImportRoot = filepath.Clean(projectDir)
	}

	if hints.Env != "" {
		l.EnvDir = absTo(projectDir, hints.Env)
	} else {
		var searched []string
		for _, name := range EnvCandidates {
			p := filepath.Join(projectDir, name)
			searched = append(searched, p)
			if isDir(p) {
				l.EnvDir = p
				break
			}
		}
		if l.EnvDir == "" {
			return Layout{}, &Error{Err: ErrMissingEnvironment, Searched: searched}
		}
	}

	libDir, err := findLibDir(l.EnvDir)
	if err != nil {
		return Layout{}, err
	}
	l.LibDir = libDir

	if hints.Module != "" {
		name := strings.TrimSuffix(hints.Module, ".py")
		file := filepath.Join(l.ImportRoot, name+".py")
		pkg := filepath.Join(l.ImportRoot, name)
		switch {
		case isFile(file):
			l.ModuleRoot = l.ImportRoot
		case isFile(filepath.Join(pkg, "__init__.py")):
			l.ModuleRoot = pkg
		default:
			return Layout{}, &Error{Err: ErrMissingModule, Searched: []string{file, filepath.Join(pkg, "__init__.py")}}
		}
		l.ModuleName = name
		return l, nil
	}

	candidates := packageCandidates(l.ImportRoot, l.EnvDir, files)
	if len(candidates) != 1 {
		return Layout{}, &Error{Err: ErrMissingModule, Searched: []string{l.ImportRoot}, Candidates: candidates}
	}
	l.ModuleName = candidates[0]
	l.ModuleRoot = filepath.Join(l.ImportRoot, l.ModuleName)
	if !isFile(filepath.Join(l.ModuleRoot, "__init__.py")) {
		return Layout{}, &Error{Err: ErrMissingModule, Searched: []string{filepath.Join(l.ModuleRoot, "__init__.py")}}
	}
	return l, nil
}

// findLibDir returns the first <env>/lib/python*/site-packages in sorted
// order.
func findLibDir(envDir string) (string, error) {
	pattern := filepath.Join(envDir, "lib", "python*", "site-packages")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	slices.Sort(matches)
	for _, m := range matches {
		if isDir(m) {
			return m, nil
		}
	}
	return "", &Error{Err: ErrMissingLibraryDir, Searched: []string{pattern}}
}

// packageCandidates returns the sorted, unique top-level directories
// under importRoot that contain an __init__.py somewhere below them.
// Files inside the environment dir never count, and neither does an
// __init__.py of importRoot itself.
func packageCandidates(importRoot, envDir string, files walker.Files) []string {
	seen := map[string]bool{}
	var res []string
	for _, f := range files.Under(importRoot) {
		if filepath.Base(f) != "__init__.py" || len(walker.Files{f}.Under(envDir)) > 0 {
			continue
		}
		rel, err := filepath.Rel(importRoot, f)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 2 || seen[parts[0]] {
			continue
		}
		seen[parts[0]] = true
		res = append(res, parts[0])
	}
	slices.Sort(res)
	return res
}
