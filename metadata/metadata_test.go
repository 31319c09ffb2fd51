package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/py2gomod/py2gomod/ir"
)

func TestDecode(t *testing.T) {
	require := require.New(t)

	md, err := Decode([]byte(`
[build-system]
requires = ["hatchling"]

[project]
name = "calc"
version = "0.3.1"
description = "A calculator"
requires-python = ">=3.10"
license = "MIT"
authors = [
  { name = "Ada", email = "ada@example.com" },
  { email = "anon@example.com" },
  {},
]
unknown-key = true

[tool.ruff]
line-length = 100

[tool.py2gomod]
venv = ".env"
module-root = "src"
module = "calc"
`))
	require.NoError(err)
	require.Equal(ir.ProjectMetadata{
		Name:           "calc",
		Version:        "0.3.1",
		Description:    "A calculator",
		RequiresPython: ">=3.10",
		License:        "MIT",
		Authors:        []string{"Ada", "anon@example.com"},
		Overrides: ir.Overrides{
			Env:        ".env",
			ModuleRoot: "src",
			Module:     "calc",
		},
	}, md)
}

func TestDecodeLicenseForms(t *testing.T) {
	tests := []struct {
		license string
		want    string
	}{
		{`license = "Apache-2.0"`, "Apache-2.0"},
		{`license = { text = "BSD" }`, "BSD"},
		{`license = { file = "LICENSE.txt" }`, "LICENSE.txt"},
		{``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require := require.New(t)
			md, err := Decode([]byte("[project]\nname = \"x\"\nversion = \"1\"\n" + tt.license + "\n"))
			require.NoError(err)
			require.Equal(tt.want, md.License)
		})
	}

	_, err := Decode([]byte("[project]\nname = \"x\"\nversion = \"1\"\nlicense = 3\n"))
	require.Error(t, err)
}

func TestDecodeToolAlias(t *testing.T) {
	require := require.New(t)

	md, err := Decode([]byte(`
[project]
name = "x"
dynamic = ["version"]

[tool.py2binmod]
env = "myenv"
module = "legacy"

[tool.py2gomod]
module = "preferred"
`))
	require.NoError(err)
	require.Equal("0.0.0", md.Version)
	require.Equal(ir.Overrides{Env: "myenv", Module: "preferred"}, md.Overrides)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no project", "[tool.py2gomod]\nmodule = \"x\"\n", ErrMissingProjectMetadata},
		{"no name", "[project]\nversion = \"1\"\n", ErrMissingProjectMetadata},
		{"no version", "[project]\nname = \"x\"\n", ErrMissingProjectMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Decode([]byte("[project]\nname = \"x\"\nversion = \"1\"\n[tool.py2gomod]\nvenv = \"a\"\nenv = \"b\"\n"))
	require.ErrorContains(t, err, "conflicting")
}

func TestLoadErrors(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	_, err := Parse(dir)
	require.ErrorIs(err, ErrMissingProjectMetadata)
	require.ErrorIs(err, os.ErrNotExist)

	path := filepath.Join(dir, FileName)
	require.NoError(os.WriteFile(path, []byte("[project]\nname = \"x\"\nversion = \"1\"\n[tool.py2gomod]\nmodul = \"typo\"\n"), 0o644))
	_, err = Parse(dir)
	var mErr *Error
	require.True(errors.As(err, &mErr))
	require.True(strings.HasPrefix(mErr.Error(), path+": "))
	require.Contains(mErr.String(), "modul")

	require.NoError(os.WriteFile(path, []byte("[project\nname = 1\n"), 0o644))
	_, err = Parse(dir)
	require.True(errors.As(err, &mErr))
	require.True(strings.HasPrefix(mErr.String(), "Error in file "))
}
