package bindgen

import (
	"bytes"
	"fmt"
	"strings"
)

// writer accumulates generated source with tab indentation.
type writer struct {
	buf    bytes.Buffer
	indent int
}

// line writes one formatted line at the current indentation.
func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.buf.WriteByte('\n')
		return
	}
	w.buf.WriteString(strings.Repeat("\t", w.indent))
	if len(args) > 0 {
		fmt.Fprintf(&w.buf, format, args...)
	} else {
		w.buf.WriteString(format)
	}
	w.buf.WriteByte('\n')
}

// open writes a line and indents what follows.
func (w *writer) open(format string, args ...any) {
	w.line(format, args...)
	w.indent++
}

// close dedents and writes a line.
func (w *writer) close(format string, args ...any) {
	w.indent--
	w.line(format, args...)
}

// blank writes an empty line.
func (w *writer) blank() { w.buf.WriteByte('\n') }

// comment writes text as a comment block, one comment line per text line.
// marker is "//" for Go and " *" inside a C block comment.
func (w *writer) comment(marker, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			w.line("%s", strings.TrimRight(marker, " "))
			continue
		}
		w.line("%s %s", marker, l)
	}
}

// cComment writes text as a C block comment.
func (w *writer) cComment(text string) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "*/", "* /"))
	if text == "" {
		return
	}
	if !strings.Contains(text, "\n") {
		w.line("/* %s */", text)
		return
	}
	w.line("/*")
	w.comment(" *", text)
	w.line(" */")
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }
