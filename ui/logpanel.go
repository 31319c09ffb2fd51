package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#666666")).
	Padding(0, 1)

// LogPanel keeps the last lines of a build log. It implements
// compiler.OutputSink and is safe for concurrent use.
type LogPanel struct {
	Title string
	// Max is the number of lines kept. Defaults to 10.
	Max int

	mu    sync.Mutex
	lines []logLine
	total int
}

type logLine struct {
	text   string
	stderr bool
}

func (p *LogPanel) add(text string, stderr bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	limit := p.Max
	if limit <= 0 {
		limit = 10
	}
	p.total++
	p.lines = append(p.lines, logLine{text: text, stderr: stderr})
	if len(p.lines) > limit {
		p.lines = p.lines[len(p.lines)-limit:]
	}
}

func (p *LogPanel) Stdout(line string) { p.add(line, false) }
func (p *LogPanel) Stderr(line string) { p.add(line, true) }

// Lines returns the kept lines.
func (p *LogPanel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]string, len(p.lines))
	for i, l := range p.lines {
		res[i] = l.text
	}
	return res
}

// View renders the kept lines in a box. Empty if nothing was logged.
func (p *LogPanel) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lines) == 0 {
		return ""
	}
	var b strings.Builder
	if hidden := p.total - len(p.lines); hidden > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("... %d earlier lines", hidden)))
		b.WriteString("\n")
	}
	for i, l := range p.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if l.stderr {
			b.WriteString(warnStyle.UnsetBold().Render(l.text))
		} else {
			b.WriteString(l.text)
		}
	}
	box := panelStyle.Render(b.String())
	if p.Title != "" {
		box = dimStyle.Render(p.Title) + "\n" + box
	}
	return box + "\n"
}

// Finish writes the final status to w. On failure the panel is shown
// so the last lines of the log stay visible.
func (p *LogPanel) Finish(w io.Writer, success bool) {
	if success {
		fmt.Fprintln(w, successStyle.Render("Build succeeded"))
		return
	}
	fmt.Fprint(w, p.View())
	fmt.Fprintln(w, errorStyle.Render("Build failed"))
}
