package module

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleText(t *testing.T) {
	require := require.New(t)

	var m Module
	require.NoError(m.UnmarshalText([]byte("github.com/go-python/gpython@v0.2.0")))
	require.Equal(Gpython, m)
	require.NoError(m.UnmarshalText([]byte("calc")))
	require.Equal(New("calc", ""), m)

	require.Error(m.UnmarshalText([]byte("calc@1.0")))
	require.Error(m.UnmarshalText([]byte("bad path")))

	text, err := Gpython.MarshalText()
	require.NoError(err)
	require.Equal("github.com/go-python/gpython@v0.2.0", string(text))
}

func TestPathFor(t *testing.T) {
	for _, tc := range []struct {
		dist, fallback string
		want           string
	}{
		{"calc", "x", "calc"},
		{"My Calc", "x", "my-calc"},
		{"numpy_lite.core", "x", "numpy_lite.core"},
		{"", "calc", "calc"},
		{"???", "Calc", "calc"},
	} {
		got, err := PathFor(tc.dist, tc.fallback)
		require.NoError(t, err, tc.dist)
		require.Equal(t, tc.want, got, tc.dist)
	}

	_, err := PathFor("", "")
	require.Error(t, err)
}

func TestPackageName(t *testing.T) {
	require := require.New(t)
	require.Equal("calc", PackageName("calc"))
	require.Equal("mycalc", PackageName("my_calc"))
	require.Equal("binmod", PackageName("type"))
	require.Equal("binmod", PackageName("main"))

	require.NoError(CheckPackageName("calc"))
	require.Error(CheckPackageName("Calc"))
	require.Error(CheckPackageName("func"))
}
