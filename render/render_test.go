package render

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/mod/modfile"

	"github.com/py2gomod/py2gomod/ir"
	"github.com/py2gomod/py2gomod/shim"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func fixture(t *testing.T) *ir.ProjectContext {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/calc/__init__.py":                                "",
		"src/calc/ops.py":                                     "def add(a: int, b: int) -> int:\n    return a + b\n",
		"src/calc/__pycache__/ops.cpython-312.pyc":            "junk",
		"src/calc/data.txt":                                   "not python",
		"venv/lib/python3.12/site-packages/six.py":            "# six\n",
		"venv/lib/python3.12/site-packages/six/__pycache__/x": "junk",
	})
	return &ir.ProjectContext{
		ProjectDir: dir,
		EnvDir:     filepath.Join(dir, "venv"),
		LibDir:     filepath.Join(dir, "venv/lib/python3.12/site-packages"),
		ImportRoot: filepath.Join(dir, "src"),
		ModuleRoot: filepath.Join(dir, "src/calc"),
		ModuleName: "calc",
		Metadata: ir.ProjectMetadata{
			Name:        "calc",
			Version:     "1.2.0",
			Description: "Small arithmetic helpers.",
			Authors:     []string{"Ada", "Grace"},
		},
		Modules: []*ir.Module{{
			Name: "ops",
			Path: filepath.Join(dir, "src/calc/ops.py"),
			Functions: []ir.ModuleFunction{{
				Name:   "add",
				Params: []ir.Parameter{{Name: "a", Type: ir.Integer()}, {Name: "b", Type: ir.Integer()}},
				Return: ir.Integer(),
			}},
		}},
	}
}

func paths(files []File) []string {
	var res []string
	for _, f := range files {
		res = append(res, f.Path)
	}
	return res
}

func TestRenderDuplicatePath(t *testing.T) {
	require := require.New(t)

	a := UnitFunc(func() ([]File, error) { return []File{{Path: "a/b.txt"}}, nil })
	b := UnitFunc(func() ([]File, error) { return []File{{Path: "a/./b.txt"}}, nil })
	_, err := Render(a, b)
	require.ErrorIs(err, ErrDuplicatePath)
	require.ErrorContains(err, "a/b.txt")

	_, err = Render(UnitFunc(func() ([]File, error) { return []File{{Path: "../x"}}, nil }))
	require.ErrorContains(err, "invalid output path")

	files, err := Render(a)
	require.NoError(err)
	require.Equal(os.FileMode(0o644), files[0].Mode)
}

func TestGoModUnit(t *testing.T) {
	require := require.New(t)

	files, err := GoModUnit{ModulePath: "example.com/calc"}.Render()
	require.NoError(err)
	require.Len(files, 1)
	require.Equal("go.mod", files[0].Path)

	f, err := modfile.Parse("go.mod", files[0].Content, nil)
	require.NoError(err)
	require.Equal("example.com/calc", f.Module.Mod.Path)
	require.Equal("1.23", f.Go.Version)
	require.Len(f.Require, 1)
	require.Equal("github.com/go-python/gpython", f.Require[0].Mod.Path)

	_, err = GoModUnit{ModulePath: "bad path"}.Render()
	require.Error(err)
}

func TestTemplateUnit(t *testing.T) {
	require := require.New(t)

	pc := fixture(t)
	e := Emitted{ModulePath: "example.com/calc", Package: "calc"}
	files, err := TemplateUnit{Context: pc, Emitted: e, Year: 2026}.Render()
	require.NoError(err)
	require.Equal([]string{"README.md", "doc.go"}, paths(files))

	readme := string(files[0].Content)
	require.True(strings.HasPrefix(readme, "# calc\n\nSmall arithmetic helpers.\n"))
	require.Contains(readme, `import calc "example.com/calc"`)
	require.Contains(readme, "| `Add` | `calc.ops.add` |")
	require.NotContains(readme, "Host functions")

	doc := string(files[1].Content)
	require.Contains(doc, "// Package calc exposes the Python package calc as Go functions.\n//\n// Small arithmetic helpers.\npackage calc\n")

	pc.Metadata.License = "MIT"
	files, err = TemplateUnit{Context: pc, Emitted: e, Year: 2026}.Render()
	require.NoError(err)
	require.Equal([]string{"README.md", "doc.go", "LICENSE"}, paths(files))
	require.Equal("calc 1.2.0\nCopyright (c) 2026 Ada, Grace\n\nLicensed under MIT.\n", string(files[2].Content))
}

func TestResourceUnit(t *testing.T) {
	require := require.New(t)

	files, err := ResourceUnit{Context: fixture(t)}.Render()
	require.NoError(err)
	require.Equal([]string{
		"pysrc/calc/__init__.py",
		"pysrc/calc/ops.py",
		"pylib/six.py",
		"pylib/typing.py",
	}, paths(files))
	require.Equal("def add(a, b):\n    return a + b\n", string(files[1].Content))
	require.Equal("# six\n", string(files[2].Content))
	require.Contains(string(files[3].Content), "Optional = _Form(\"Optional\")")

	pc := fixture(t)
	pc.LibDir = ""
	pc.ModuleRoot = filepath.Join(pc.ProjectDir, "src/empty")
	require.NoError(os.MkdirAll(pc.ModuleRoot, 0o755))
	files, err = ResourceUnit{Context: pc}.Render()
	require.NoError(err)
	require.Equal([]string{"pysrc/.keep", "pylib/typing.py"}, paths(files))
}

func TestResourceUnitLibraries(t *testing.T) {
	require := require.New(t)

	pc := fixture(t)
	writeFiles(t, pc.LibDir, map[string]string{
		"typing.py":     "# vendored\n",
		"annotated.py":  "x: int = 1\n",
		"broken.py":     "s = 'open\n",
		"pkg/README.md": "x: int = 1\n",
	})
	files, err := ResourceUnit{Context: pc}.Render()
	require.NoError(err)

	content := map[string]string{}
	for _, f := range files {
		content[f.Path] = string(f.Content)
	}
	require.Equal("x = 1\n", content["pylib/annotated.py"])
	require.Equal("s = 'open\n", content["pylib/broken.py"])
	require.Equal("x: int = 1\n", content["pylib/pkg/README.md"])
	require.Equal("# vendored\n", content["pylib/typing.py"])
}

func TestResourceUnitSyntaxError(t *testing.T) {
	pc := fixture(t)
	writeFiles(t, pc.ImportRoot, map[string]string{"calc/bad.py": "s = 'open\n"})
	_, err := ResourceUnit{Context: pc}.Render()
	require.ErrorContains(t, err, "bad.py")
}

func TestBridgeUnit(t *testing.T) {
	require := require.New(t)

	files, err := BridgeUnit{}.Render()
	require.NoError(err)
	require.True(slices.Contains(paths(files), "internal/bridge/pool.go"))
	for _, f := range files {
		require.False(strings.HasSuffix(f.Path, "_test.go"), f.Path)
	}
}

func TestUnitsWrite(t *testing.T) {
	require := require.New(t)

	pc := fixture(t)
	e := Emitted{ModulePath: "example.com/calc", Package: "calc"}
	files, err := Render(Units(pc, e, 2026, shim.Options{})...)
	require.NoError(err)

	out := t.TempDir()
	require.NoError(Write(out, files))
	for _, name := range []string{"go.mod", "README.md", "doc.go", "binmod.go", "internal/bridge/codec.go", "pysrc/calc/ops.py", "pylib/six.py"} {
		_, err := os.Stat(filepath.Join(out, name))
		require.NoError(err, name)
	}
	code, err := os.ReadFile(filepath.Join(out, "binmod.go"))
	require.NoError(err)
	require.Contains(string(code), `"example.com/calc/internal/bridge"`)
	require.Contains(string(code), "func Add(ctx context.Context, a int64, b int64) (int64, error) {")
	require.Greater(Size(files), uint64(0))
}
