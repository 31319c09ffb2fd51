// Package render turns a project context into the files of the emitted
// Go module.
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrDuplicatePath = errors.New("duplicate output path")

// File is one rendered output file. Path is slash-separated and
// relative to the output directory.
type File struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

// Unit renders to file contents.
type Unit interface {
	Render() ([]File, error)
}

// UnitFunc adapts a function to a Unit.
type UnitFunc func() ([]File, error)

func (f UnitFunc) Render() ([]File, error) { return f() }

// Render concatenates the output of all units in order.
func Render(units ...Unit) ([]File, error) {
	var files []File
	seen := map[string]bool{}
	for _, u := range units {
		out, err := u.Render()
		if err != nil {
			return nil, err
		}
		for _, f := range out {
			p := path.Clean(f.Path)
			if p == "." || path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
				return nil, fmt.Errorf("invalid output path %q", f.Path)
			}
			if seen[p] {
				return nil, fmt.Errorf("%w: %v", ErrDuplicatePath, p)
			}
			seen[p] = true
			f.Path = p
			if f.Mode == 0 {
				f.Mode = 0o644
			}
			files = append(files, f)
		}
	}
	return files, nil
}

// Write writes files below dir, creating directories as needed.
func Write(dir string, files []File) error {
	for _, f := range files {
		dst := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, f.Content, f.Mode); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the total content size of files.
func Size(files []File) uint64 {
	var n uint64
	for _, f := range files {
		n += uint64(len(f.Content))
	}
	return n
}
