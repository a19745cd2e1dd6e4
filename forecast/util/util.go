// Package util holds formatting helpers shared by the forecast model summaries
package util

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// IndentExpand repeats the indent growth times
func IndentExpand(indent string, growth int) string {
	if growth <= 0 {
		return ""
	}
	return strings.Repeat(indent, growth)
}

// Lines writes indented summary lines and keeps the first write error.
type Lines struct {
	w      io.Writer
	prefix string
	indent string
	err    error
}

func NewLines(w io.Writer, prefix, indent string) *Lines {
	return &Lines{w: w, prefix: prefix, indent: indent}
}

// Printf writes a line at the indent level. It does nothing after a failed write.
func (l *Lines) Printf(level int, format string, args ...any) {
	if l.err != nil {
		return
	}
	_, l.err = fmt.Fprintf(l.w, l.prefix+IndentExpand(l.indent, level)+format+"\n", args...)
}

// Table writes a titled table one level below the title. Without rows only the title is
// written followed by None.
func (l *Lines) Table(level int, title string, header []string, rows [][]string) {
	if l.err != nil {
		return
	}
	l.err = Table(l.w, l.prefix, l.indent, level, title, header, rows)
}

func (l *Lines) Err() error {
	return l.err
}

// Table writes a titled right aligned table one indent level below the title. Without rows only
// the title is written followed by None.
func Table(w io.Writer, prefix, indent string, level int, title string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "%s%s%s: None\n", prefix, IndentExpand(indent, level), title)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s%s:\n", prefix, IndentExpand(indent, level), title); err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	rowIndent := prefix + IndentExpand(indent, level+1)
	for _, cells := range append([][]string{header}, rows...) {
		if _, err := fmt.Fprintf(tbl, "%s%s\t\n", rowIndent, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
