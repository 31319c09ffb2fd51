package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/py2gomod/py2gomod/compiler"
)

func TestPrinter(t *testing.T) {
	require := require.New(t)

	var b bytes.Buffer
	p := &Printer{Writer: &b, MinLevel: WARN}
	p.Info("hidden")
	p.Warn("single %v", "line")
	p.Error("first\nsecond")

	out := b.String()
	require.NotContains(out, "hidden")
	require.Contains(out, "WARNING")
	require.Contains(out, ": single line\n")
	require.Contains(out, ":\n  first\n  second\n")
}

func TestLogPanel(t *testing.T) {
	require := require.New(t)

	var sink compiler.OutputSink = &LogPanel{Max: 2}
	sink.Stdout("one")
	sink.Stderr("two")
	sink.Stdout("three")
	panel := sink.(*LogPanel)
	require.Equal([]string{"two", "three"}, panel.Lines())

	view := panel.View()
	require.Contains(view, "1 earlier lines")
	require.Contains(view, "three")
	require.NotContains(view, "one")

	var b bytes.Buffer
	panel.Finish(&b, false)
	require.Contains(b.String(), "three")
	require.Contains(b.String(), "Build failed")

	b.Reset()
	panel.Finish(&b, true)
	require.NotContains(b.String(), "three")
	require.Contains(b.String(), "Build succeeded")

	require.Equal("", (&LogPanel{}).View())
}

func TestStepPlain(t *testing.T) {
	require := require.New(t)

	var b bytes.Buffer
	require.NoError(Step(&b, "Parsing project", StepOptions{}, func() error { return nil }))
	require.True(strings.HasPrefix(b.String(), "Parsing project...\n"))
	require.Contains(b.String(), "✓ Parsing project")

	b.Reset()
	boom := errors.New("boom")
	require.ErrorIs(Step(&b, "Building", StepOptions{}, func() error { return boom }), boom)
	require.Contains(b.String(), "✗ Building")
}

func TestStepModel(t *testing.T) {
	require := require.New(t)

	m := newStepModel("Building", func() string { return "detail\n" })
	require.Contains(m.View(), "Building")
	require.True(strings.HasSuffix(m.View(), "detail\n"))

	next, cmd := m.Update(stepDoneMsg{})
	require.NotNil(cmd)
	require.Contains(next.View(), "✓ Building")
}

func TestListing(t *testing.T) {
	require := require.New(t)

	var b bytes.Buffer
	Listing(&b, "go.mod", []byte("module calc\n\ngo 1.23\n"))
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(lines, 4)
	require.Contains(lines[0], "go.mod")
	require.Contains(lines[0], "21 B")
	require.Contains(lines[1], "1 │ module calc")
	require.Contains(lines[2], "2 │")
	require.Contains(lines[3], "3 │ go 1.23")
}
