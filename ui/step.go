package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type stepDoneMsg struct {
	err     error
	elapsed time.Duration
}

type stepModel struct {
	title   string
	detail  func() string
	spinner spinner.Model
	done    *stepDoneMsg
}

func newStepModel(title string, detail func() string) stepModel {
	return stepModel{
		title:   title,
		detail:  detail,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(infoStyle)),
	}
}

func (m stepModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepDoneMsg:
		m.done = &msg
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m stepModel) View() string {
	var s string
	if m.done != nil {
		s = stepResult(m.title, m.done.err, m.done.elapsed)
	} else {
		s = m.spinner.View() + " " + m.title + "\n"
	}
	if m.detail != nil {
		s += m.detail()
	}
	return s
}

func stepResult(title string, err error, elapsed time.Duration) string {
	if err != nil {
		return errorStyle.Render("✗") + " " + title + "\n"
	}
	return successStyle.Render("✓") + " " + title + dimStyle.Render(fmt.Sprintf(" (%v)", elapsed.Round(time.Millisecond))) + "\n"
}

// StepOptions configure Step.
type StepOptions struct {
	// Detail is rendered below the status line while the step runs,
	// e.g. a LogPanel view.
	Detail func() string
	// Plain disables the spinner even on a terminal.
	Plain bool
}

// Step runs fn, showing a spinner next to title while it runs if w is a
// terminal. Otherwise plain status lines are written. Returns the error
// of fn.
func Step(w io.Writer, title string, opts StepOptions, fn func() error) error {
	if opts.Plain || !IsTerminal(w) {
		fmt.Fprintf(w, "%v...\n", title)
		start := time.Now()
		err := fn()
		fmt.Fprint(w, stepResult(title, err, time.Since(start)))
		return err
	}

	p := tea.NewProgram(newStepModel(title, opts.Detail), tea.WithOutput(w), tea.WithInput(nil))
	errc := make(chan error, 1)
	go func() {
		start := time.Now()
		err := fn()
		errc <- err
		p.Send(stepDoneMsg{err: err, elapsed: time.Since(start)})
	}()
	if _, err := p.Run(); err != nil {
		return err
	}
	return <-errc
}
