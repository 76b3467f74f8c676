// Package source holds raw program text together with the diagnostics
// engine that reports positioned errors, warnings, and notes against it.
package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Buffer holds a program's raw UTF-8 bytes and a lazily split view into
// physical lines. Line endings are LF or CRLF; a trailing CR is stripped.
type Buffer struct {
	Filename string
	Text     string

	lines []string
}

// NewBuffer wraps source text under the given filename (used only for
// diagnostic messages).
func NewBuffer(filename, text string) *Buffer {
	return &Buffer{Filename: filename, Text: text}
}

// Load reads r fully and returns a Buffer for it.
func Load(filename string, r io.Reader) (*Buffer, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, bufio.NewReader(r)); err != nil {
		return nil, err
	}
	return NewBuffer(filename, sb.String()), nil
}

// Line returns the 1-based physical line, or "" if out of range.
func (b *Buffer) Line(n int) string {
	b.ensureSplit()
	if n < 1 || n > len(b.lines) {
		return ""
	}
	return b.lines[n-1]
}

func (b *Buffer) ensureSplit() {
	if b.lines != nil {
		return
	}
	if b.Text == "" {
		b.lines = []string{}
		return
	}
	var lines []string
	start := 0
	for i := 0; i < len(b.Text); i++ {
		if b.Text[i] == '\n' {
			line := b.Text[start:i]
			line = strings.TrimSuffix(line, "\r")
			lines = append(lines, line)
			start = i + 1
		}
	}
	if start < len(b.Text) {
		lines = append(lines, strings.TrimSuffix(b.Text[start:], "\r"))
	}
	b.lines = lines
}

// Level classifies a Diagnostic.
type Level int

const (
	Error Level = iota
	Warning
	Note
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "diagnostic"
	}
}

// Diagnostic is a single positioned report.
type Diagnostic struct {
	Level   Level
	Message string
	Line    int
	Column  int
	Length  int
}

// DefaultMaxErrors is the abort threshold used when Diagnostics is
// constructed with NewDiagnostics.
const DefaultMaxErrors = 100

// Diagnostics accumulates and formats Diagnostic records for a single
// Buffer. It is shared, write side, by the lexer and the parser.
type Diagnostics struct {
	buf       *Buffer
	w         io.Writer
	UseColor  bool
	MaxErrors int

	errorCount   int
	warningCount int
	records      []Diagnostic
}

// NewDiagnostics constructs a Diagnostics engine that writes formatted
// records to w as they are reported.
func NewDiagnostics(buf *Buffer, w io.Writer) *Diagnostics {
	return &Diagnostics{buf: buf, w: w, MaxErrors: DefaultMaxErrors}
}

func (d *Diagnostics) Errorf(line, col, length int, format string, args ...any) {
	d.errorCount++
	d.report(Diagnostic{Error, fmt.Sprintf(format, args...), line, col, length})
}

func (d *Diagnostics) Warnf(line, col, length int, format string, args ...any) {
	d.warningCount++
	d.report(Diagnostic{Warning, fmt.Sprintf(format, args...), line, col, length})
}

func (d *Diagnostics) Notef(line, col, length int, format string, args ...any) {
	d.report(Diagnostic{Note, fmt.Sprintf(format, args...), line, col, length})
}

// Pos is anything with a source position, satisfied by token.Token.
type Pos interface {
	Pos() (line, col, length int)
}

// ErrorAt reports an error at pos, the token-based counterpart to Errorf.
func (d *Diagnostics) ErrorAt(pos Pos, format string, args ...any) {
	line, col, length := pos.Pos()
	d.Errorf(line, col, length, format, args...)
}

// ErrorCount, WarningCount report cumulative counts.
func (d *Diagnostics) ErrorCount() int   { return d.errorCount }
func (d *Diagnostics) WarningCount() int { return d.warningCount }
func (d *Diagnostics) HasErrors() bool   { return d.errorCount > 0 }

// ShouldAbort reports whether the error count has hit MaxErrors.
func (d *Diagnostics) ShouldAbort() bool {
	return d.MaxErrors > 0 && d.errorCount >= d.MaxErrors
}

// Records returns every diagnostic reported so far, in report order.
func (d *Diagnostics) Records() []Diagnostic {
	return d.records
}

func (d *Diagnostics) report(rec Diagnostic) {
	d.records = append(d.records, rec)
	if d.w == nil {
		return
	}
	filename := "<input>"
	if d.buf != nil && d.buf.Filename != "" {
		filename = d.buf.Filename
	}
	fmt.Fprintf(d.w, "%s:%d:%d: %s: %s\n", filename, rec.Line, rec.Column, rec.Level, rec.Message)
	if d.buf == nil {
		return
	}
	line := d.buf.Line(rec.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(d.w, "    %s\n", line)
	fmt.Fprintf(d.w, "    %s\n", caret(rec.Column, rec.Length))
}

func caret(column, length int) string {
	var sb strings.Builder
	for i := 1; i < column; i++ {
		sb.WriteByte(' ')
	}
	sb.WriteByte('^')
	for i := 1; i < length; i++ {
		sb.WriteByte('~')
	}
	return sb.String()
}
