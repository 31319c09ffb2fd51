// Package codegen provides helpers for emitting Go source code.
package codegen

import (
	"bufio"
	"fmt"
	"go/format"
	"strings"

	"github.com/py2gomod/py2gomod/textutils"
)

// CodeBuilder is a wrapper around [strings.Builder] that simplifies
// building Go code.
//
// The zero value is safely ready to use.
type CodeBuilder struct {
	// Indent is the indentation level (indentation is tabs).
	Indent int

	b strings.Builder
}

// Write appends a raw string to the internal [strings.Builder].
func (w *CodeBuilder) Write(s string) {
	w.b.WriteString(s)
}

// Append writes the given string line by line with correct indentation.
func (w *CodeBuilder) Append(s string) {
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		if sc.Text() == "" {
			w.b.WriteString("\n")
			continue
		}
		w.Linef("%v", sc.Text())
	}
}

// Linef writes a single line, prepended by the current indentation.
//
// Takes format and args like [fmt.Printf].
func (w *CodeBuilder) Linef(format string, args ...any) {
	for range w.Indent {
		w.b.WriteString("\t")
	}
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

// Comment writes text as line comments. Nothing is written for empty
// text.
func (w *CodeBuilder) Comment(text string) {
	if text == "" {
		return
	}
	w.Append(textutils.CommentLines(text))
}

// Block writes head followed by " {", calls body with increased
// indentation and closes the brace.
func (w *CodeBuilder) Block(head string, body func()) {
	w.Linef("%v {", head)
	w.Indent++
	body()
	w.Indent--
	w.Linef("}")
}

// BlockEnd is like Block, but closes with end instead of a lone brace,
// e.g. "})" after a function literal passed as the last argument.
func (w *CodeBuilder) BlockEnd(head, end string, body func()) {
	w.Linef("%v {", head)
	w.Indent++
	body()
	w.Indent--
	w.Linef("%v", end)
}

// String returns the current code without applying any formatting.
func (w *CodeBuilder) String() string {
	return w.b.String()
}

// FmtString attempts to format the current code as Go source code.
func (w *CodeBuilder) FmtString() (string, error) {
	code, err := format.Source([]byte(w.String()))
	if err != nil {
		return "", err
	}
	return string(code), nil
}

func (w *CodeBuilder) Reset() {
	w.Indent = 0
	w.b.Reset()
}
