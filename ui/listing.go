package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Listing writes content with a header and a dimmed line-number gutter.
func Listing(w io.Writer, name string, content []byte) {
	text := strings.TrimSuffix(string(content), "\n")
	lines := strings.Split(text, "\n")
	width := len(strconv.Itoa(len(lines)))

	fmt.Fprintln(w, titleStyle.Render(name)+dimStyle.Render(" "+Size(uint64(len(content)))))
	for i, l := range lines {
		gutter := dimStyle.Render(fmt.Sprintf("%*d │", width, i+1))
		if l == "" {
			fmt.Fprintln(w, gutter)
		} else {
			fmt.Fprintln(w, gutter, l)
		}
	}
}

// Size formats a byte count, e.g. "1.2 MB".
func Size(n uint64) string {
	return humanize.Bytes(n)
}
