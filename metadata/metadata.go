// Package metadata reads project metadata from pyproject.toml.
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"

	"github.com/py2gomod/py2gomod/ir"
)

// FileName is the name of the project manifest.
const FileName = "pyproject.toml"

// ToolName is the key of the tool override block ([tool.py2gomod]).
// ToolAlias ([tool.py2binmod]) is read as well; ToolName takes priority
// for keys set in both.
const (
	ToolName  = "py2gomod"
	ToolAlias = "py2binmod"
)

var ErrMissingProjectMetadata = errors.New("missing project metadata")

type Error struct {
	filePath string
	err      error  // short, single-line error
	str      string // full, multi-line error string, or err string, if none
}

// Error returns a short error message.
func (e *Error) Error() string {
	return e.filePath + ": " + e.err.Error()
}

// String returns the full multi-line error string.
func (e *Error) String() string {
	if e.str != "" {
		return "Error in file " + strconv.Quote(e.filePath) + ":\n" + e.str
	} else {
		return e.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.err
}

type author struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type project struct {
	Name           string   `toml:"name"`
	Version        string   `toml:"version"`
	Description    string   `toml:"description"`
	RequiresPython string   `toml:"requires-python"`
	Authors        []author `toml:"authors"`
	License        any      `toml:"license"` // string or {text = ...} / {file = ...}
	Dynamic        []string `toml:"dynamic"`
}

type pyproject struct {
	Project *project       `toml:"project"`
	Tool    map[string]any `toml:"tool"`
}

type tool struct {
	Venv       string `toml:"venv"`
	Env        string `toml:"env"`
	ModuleRoot string `toml:"module-root"`
	Module     string `toml:"module"`
}

// Parse reads pyproject.toml from projectDir.
func Parse(projectDir string) (ir.ProjectMetadata, error) {
	return Load(filepath.Join(projectDir, FileName))
}

// Load reads the manifest at path.
func Load(path string) (_ ir.ProjectMetadata, err error) {
	defer func() {
		if err != nil {
			if tErr := (&toml.DecodeError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else if tErr := (&toml.StrictMissingError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else {
				err = &Error{filePath: path, err: err}
			}
		}
	}()

	file, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ir.ProjectMetadata{}, fmt.Errorf("%w: %w", ErrMissingProjectMetadata, err)
		}
		return ir.ProjectMetadata{}, err
	}
	return Decode(file)
}

// Decode parses manifest contents.
func Decode(data []byte) (ir.ProjectMetadata, error) {
	var doc pyproject
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return ir.ProjectMetadata{}, err
	}
	p := doc.Project
	if p == nil {
		return ir.ProjectMetadata{}, fmt.Errorf("%w: no [project] table", ErrMissingProjectMetadata)
	}
	if p.Name == "" {
		return ir.ProjectMetadata{}, fmt.Errorf("%w: project.name is not set", ErrMissingProjectMetadata)
	}
	if p.Version == "" {
		if !slices.Contains(p.Dynamic, "version") {
			return ir.ProjectMetadata{}, fmt.Errorf("%w: project.version is not set", ErrMissingProjectMetadata)
		}
		p.Version = "0.0.0"
	}

	md := ir.ProjectMetadata{
		Name:           p.Name,
		Version:        p.Version,
		Description:    p.Description,
		RequiresPython: p.RequiresPython,
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			md.Authors = append(md.Authors, a.Name)
		} else if a.Email != "" {
			md.Authors = append(md.Authors, a.Email)
		}
	}
	lic, err := license(p.License)
	if err != nil {
		return ir.ProjectMetadata{}, err
	}
	md.License = lic

	overrides, err := toolOverrides(doc.Tool)
	if err != nil {
		return ir.ProjectMetadata{}, err
	}
	md.Overrides = overrides
	return md, nil
}

func license(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		for _, key := range []string{"text", "file"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s, nil
			}
		}
		return "", nil
	default:
		return "", fmt.Errorf("project.license: expected string or table, got %T", v)
	}
}

// toolOverrides strictly decodes the tool override blocks.
func toolOverrides(tools map[string]any) (ir.Overrides, error) {
	var res tool
	for _, name := range []string{ToolName, ToolAlias} {
		raw, ok := tools[name]
		if !ok {
			continue
		}
		// Re-encode the table so unknown keys can be rejected without
		// being strict about the rest of the document.
		b, err := toml.Marshal(raw)
		if err != nil {
			return ir.Overrides{}, fmt.Errorf("tool.%v: %w", name, err)
		}
		var t tool
		if err := toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(&t); err != nil {
			return ir.Overrides{}, fmt.Errorf("tool.%v: %w", name, err)
		}
		if t.Venv != "" && t.Env != "" && t.Venv != t.Env {
			return ir.Overrides{}, fmt.Errorf("tool.%v: conflicting 'venv' and 'env' keys", name)
		}
		if err := mergo.Merge(&res, t); err != nil {
			return ir.Overrides{}, err
		}
	}
	env := res.Venv
	if env == "" {
		env = res.Env
	}
	return ir.Overrides{Env: env, ModuleRoot: res.ModuleRoot, Module: res.Module}, nil
}
