// Package ui presents progress and results in the terminal.
package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/py2gomod/py2gomod/textutils"
)

type Level int

const (
	INFO    Level = 0
	SUCCESS Level = 1
	WARN    Level = 2
	ERROR   Level = 3
)

var (
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#98FB98"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD866"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleStyle   = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

func (l Level) label() string {
	switch l {
	case INFO:
		return infoStyle.Render("INFO")
	case SUCCESS:
		return successStyle.Render("SUCCESS")
	case WARN:
		return warnStyle.Render("WARNING")
	case ERROR:
		return errorStyle.Render("ERROR")
	default:
		panic(fmt.Sprintf("invalid log level: %v", int(l)))
	}
}

// Printer writes leveled status messages. Messages spanning multiple
// lines start on their own line and are indented.
type Printer struct {
	Writer   io.Writer
	Prefix   string
	MinLevel Level
}

func (p *Printer) Log(level Level, format string, args ...any) {
	if p.Writer == nil || level < p.MinLevel {
		return
	}
	var b bytes.Buffer
	if p.Prefix != "" {
		b.WriteString(titleStyle.Render(p.Prefix))
		b.WriteString(" ")
	}
	b.WriteString(level.label())
	b.WriteString(":")
	s := fmt.Sprintf(format, args...)
	if strings.Contains(strings.TrimSuffix(s, "\n"), "\n") {
		b.WriteString("\n")
		s = textutils.IndentString(s, "  ", 1)
	} else {
		b.WriteString(" ")
	}
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
	// A failing terminal leaves nothing to report to.
	_, _ = io.Copy(p.Writer, &b)
}

func (p *Printer) Info(format string, args ...any)    { p.Log(INFO, format, args...) }
func (p *Printer) Success(format string, args ...any) { p.Log(SUCCESS, format, args...) }
func (p *Printer) Warn(format string, args ...any)    { p.Log(WARN, format, args...) }
func (p *Printer) Error(format string, args ...any)   { p.Log(ERROR, format, args...) }
