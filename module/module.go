package module

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// Gpython is the interpreter module every emitted module requires.
var Gpython = New("github.com/go-python/gpython", "v0.2.0")

// GoVersion is the go directive of emitted modules.
const GoVersion = "1.23"

// Basically like golang.org/x/mod/module.Version, but implementing
// TextMarshaler and with some utility methods.
type Module struct {
	Path    string
	Version string
}

func New(path, version string) Module {
	return Module{
		Path:    path,
		Version: version,
	}
}

// Check validates the path as an import path and the version, if set,
// as a canonical semantic version.
//
// Unlike x/mod/module.Check, this won't error on a path where the
// first element is missing a dot, since emitted modules are usually
// consumed through a replace directive or a workspace.
func (m *Module) Check() error {
	if err := module.CheckImportPath(m.Path); err != nil {
		return err
	}
	if m.Version != "" && semver.Canonical(m.Version) != m.Version {
		return &module.InvalidVersionError{Version: m.Version, Err: fmt.Errorf("not a canonical semantic version")}
	}
	return nil
}

func (m Module) String() string {
	if m.Version == "" {
		return m.Path
	} else {
		return m.Path + "@" + m.Version
	}
}

func (m Module) MarshalText() ([]byte, error) {
	if err := m.Check(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

func (m *Module) UnmarshalText(text []byte) error {
	m.Path, m.Version, _ = strings.Cut(string(text), "@")
	if err := m.Check(); err != nil {
		return err
	}
	return nil
}

var nonPathChars = regexp.MustCompile(`[^a-z0-9._~-]+`)

// PathFor derives a module path from a Python distribution name by
// lowercasing it and collapsing runs of characters not allowed in a
// path element into "-". Falls back to fallback if nothing remains.
func PathFor(distName, fallback string) (string, error) {
	p := strings.Trim(nonPathChars.ReplaceAllString(strings.ToLower(distName), "-"), "-.")
	if p == "" {
		p = strings.ToLower(fallback)
	}
	m := New(p, "")
	if err := m.Check(); err != nil {
		return "", fmt.Errorf("derive module path from %q: %w", distName, err)
	}
	return p, nil
}
