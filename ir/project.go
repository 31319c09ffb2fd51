package ir

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Overrides is the tool-specific block of the project manifest.
// Empty fields mean "not set".
type Overrides struct {
	Env        string // environment dir
	ModuleRoot string // import root
	Module     string // top-level module name
}

type ProjectMetadata struct {
	Name           string
	Version        string
	Description    string
	RequiresPython string
	License        string
	Authors        []string
	Overrides      Overrides
}

// ProjectContext is the fully resolved IR of one project.
type ProjectContext struct {
	ProjectDir string
	EnvDir     string
	LibDir     string
	ImportRoot string
	ModuleRoot string
	ModuleName string
	Metadata   ProjectMetadata
	Modules    []*Module
}

// HostFunctions collects the host functions of all modules.
//
// The namespace of the first module declaring a host class wins.
// conflicts lists the namespaces of later host classes that differ from
// it; their functions are still included.
func (c *ProjectContext) HostFunctions() (hf HostFunctions, conflicts []string) {
	hf.Namespace = DefaultNamespace
	found := false
	for _, m := range c.Modules {
		if m.Host == nil {
			continue
		}
		if !found {
			hf.Namespace = m.Host.Namespace
			found = true
		} else if m.Host.Namespace != hf.Namespace {
			conflicts = append(conflicts, m.Host.Namespace)
		}
		hf.Functions = append(hf.Functions, m.Host.Functions...)
	}
	return hf, conflicts
}

// SingleFile reports whether the project module is a single source file
// placed directly in the import root.
func (c *ProjectContext) SingleFile() bool {
	return filepath.Clean(c.ModuleRoot) == filepath.Clean(c.ImportRoot) && c.ImportRoot != ""
}

// ImportPath returns the dotted Python import path of m.
//
// In a single-file layout the module root is the import root itself, so
// files are importable by their own stem rather than under the module name.
func (c *ProjectContext) ImportPath(m *Module) (string, error) {
	if c.SingleFile() {
		p, err := ImportPath(c.ImportRoot, "", m.Path)
		if err != nil {
			return "", err
		}
		return strings.TrimPrefix(p, "."), nil
	}
	return ImportPath(c.ModuleRoot, c.ModuleName, m.Path)
}

// ImportPath derives the dotted import path of file, which must be located
// under moduleRoot.
//
// The path is split into components relative to moduleRoot, the ".py"
// extension is removed from the last one and a trailing "__init__" is
// dropped. An empty remainder yields moduleName alone.
func ImportPath(moduleRoot, moduleName, file string) (string, error) {
	rel, err := filepath.Rel(moduleRoot, file)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%v is not located under module root %v", file, moduleRoot)
	}
	parts := strings.Split(rel, "/")
	last := len(parts) - 1
	parts[last] = strings.TrimSuffix(parts[last], ".py")
	if parts[last] == "__init__" {
		parts = parts[:last]
	}
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == ".") {
		return moduleName, nil
	}
	return moduleName + "." + strings.Join(parts, "."), nil
}
